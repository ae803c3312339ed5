package flargs

import (
	"errors"
	"reflect"

	"github.com/dzonerzy/flargs/middleware"
)

// ExitError is a sentinel used to request a specific exit code from inside actions.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeDefaults holds common default codes.
type ExitCodeDefaults struct {
	Success         int // default: 0
	GeneralError    int // default: 1
	MisusageError   int // default: 2
	ValidationError int // default: 3
}

func defaultExitDefaults() ExitCodeDefaults {
	return ExitCodeDefaults{Success: 0, GeneralError: 1, MisusageError: 2, ValidationError: 3}
}

// ExitCodeManager maps errors and categories to process exit codes.
type ExitCodeManager struct {
	codesByName map[string]int
	codesByType map[reflect.Type]int
	codesByCLI  map[ErrorType]int
	defaults    ExitCodeDefaults
}

func newExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		codesByName: make(map[string]int),
		codesByType: make(map[reflect.Type]int),
		codesByCLI:  make(map[ErrorType]int),
		defaults:    defaultExitDefaults(),
	}
	m.codesByCLI[ErrorTypeUnknownFlag] = m.defaults.MisusageError
	m.codesByCLI[ErrorTypeUnknownCommand] = m.defaults.MisusageError
	m.codesByCLI[ErrorTypeInvalidBooleanLiteral] = m.defaults.MisusageError
	m.codesByCLI[ErrorTypeInvalidNumberLiteral] = m.defaults.MisusageError
	m.codesByCLI[ErrorTypeMissingRequired] = m.defaults.MisusageError
	m.codesByCLI[ErrorTypeInvalidSchema] = m.defaults.GeneralError

	m.codesByType[reflect.TypeOf(&middleware.TimeoutError{})] = m.defaults.GeneralError
	m.codesByType[reflect.TypeOf(&middleware.ValidationError{})] = m.defaults.ValidationError
	m.codesByType[reflect.TypeOf(&middleware.RecoveryError{})] = m.defaults.GeneralError
	return m
}

// Define registers a named exit code for documentation or lookup via Code.
// It does not affect resolution.
func (e *ExitCodeManager) Define(name string, code int) *ExitCodeManager {
	e.codesByName[name] = code
	return e
}

// Code returns a code registered with Define
func (e *ExitCodeManager) Code(name string) (int, bool) {
	code, ok := e.codesByName[name]
	return code, ok
}

// DefineError maps a concrete error value (by its dynamic type) to an exit
// code. A matching type takes precedence over the default codes but is
// secondary to an explicit ExitError and to category mappings.
func (e *ExitCodeManager) DefineError(err error, code int) *ExitCodeManager {
	if err == nil {
		return e
	}
	e.codesByType[reflect.TypeOf(err)] = code
	return e
}

// DefineCLI overrides the exit code used for an error category produced by
// the parser, the schema builders or App.
func (e *ExitCodeManager) DefineCLI(typ ErrorType, code int) *ExitCodeManager {
	e.codesByCLI[typ] = code
	return e
}

// Default replaces the manager's default codes. Defaults apply when no
// specific mapping matches.
func (e *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	e.defaults = d
	return e
}

// Resolve converts an error to an exit code according to registered mappings.
// Precedence:
//  1. nil, ErrHelpShown and ErrVersionShown are a success
//  2. ExitError (requested code)
//  3. category mapping (DefineCLI) for CLI, parse and schema errors
//  4. concrete error type mapping (DefineError)
//  5. GeneralError
func (e *ExitCodeManager) Resolve(err error) int {
	if err == nil || errors.Is(err, ErrHelpShown) || errors.Is(err, ErrVersionShown) {
		return e.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	typ := ErrorTypeOf(err)
	var cli *CLIError
	if errors.As(err, &cli) {
		typ = cli.Type
	}
	if typ != "" {
		if code, ok := e.codesByCLI[typ]; ok {
			return code
		}
		return e.defaults.GeneralError
	}

	for t, code := range e.codesByType {
		if errors.As(err, reflect.New(t).Interface()) {
			return code
		}
	}

	return e.defaults.GeneralError
}
