package flargs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dzonerzy/flargs/console"
	"github.com/fatih/color"
)

// ErrorType represents error categories for parse and schema failures.
// These categories drive suggestion logic and exit-code mapping (via ExitCodeManager).
type ErrorType string

const (
	ErrorTypeUnknownFlag           ErrorType = "unknown_flag"
	ErrorTypeInvalidBooleanLiteral ErrorType = "invalid_boolean_literal"
	ErrorTypeInvalidNumberLiteral  ErrorType = "invalid_number_literal"
	ErrorTypeMissingRequired       ErrorType = "missing_required"
	ErrorTypeInvalidSchema         ErrorType = "invalid_schema"

	// ErrorTypeUnknownCommand is reported by App, never by Parse: a command
	// without an action was left with positional tokens it cannot bind.
	ErrorTypeUnknownCommand ErrorType = "unknown_command"
)

// ParseError is returned by Parse. A parse either fully succeeds or fails with
// exactly one ParseError; there is no partial result.
type ParseError struct {
	Type       ErrorType
	Message    string
	Token      string   // offending raw token, when there is one
	Flag       string   // canonical flag name or stripped token for unknown flags
	Param      string   // param name for positional failures
	Path       []string // invoked command names, root first
	Suggestion string   // closest visible flag name, if any
}

func (e *ParseError) Error() string {
	return e.Message
}

// CommandPath returns the dotted command path where the error occurred
func (e *ParseError) CommandPath() string {
	return strings.Join(e.Path, ".")
}

// NewParseError creates a new ParseError with the given type and message
func NewParseError(errType ErrorType, message string) *ParseError {
	return &ParseError{
		Type:    errType,
		Message: message,
	}
}

// SchemaError reports an invalid schema found while building descriptors
type SchemaError struct {
	Command string // dotted path of the command being built
	Flag    string
	Param   string
	Message string
	Cause   error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("invalid schema")
	if e.Command != "" {
		fmt.Fprintf(&b, ": command %q", e.Command)
	}
	if e.Flag != "" {
		fmt.Fprintf(&b, ": flag %q", e.Flag)
	}
	if e.Param != "" {
		fmt.Fprintf(&b, ": param %q", e.Param)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// withCommand prefixes the command path of a schema error with name
func withCommand(err error, name string) error {
	var se *SchemaError
	if !errors.As(err, &se) {
		return err
	}
	out := *se
	if out.Command == "" {
		out.Command = name
	} else {
		out.Command = name + "." + out.Command
	}
	return &out
}

// ErrorTypeOf returns the category of err: the ParseError type,
// ErrorTypeInvalidSchema for schema errors, or "" otherwise.
func ErrorTypeOf(err error) ErrorType {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Type
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return ErrorTypeInvalidSchema
	}
	return ""
}

// IsErrorType reports whether err carries the given category
func IsErrorType(err error, typ ErrorType) bool {
	return err != nil && ErrorTypeOf(err) == typ
}

// CLIError is the user-facing form of a failure, with suggestions attached
// by the ErrorHandler before it is printed.
type CLIError struct {
	Type        ErrorType
	Message     string
	Suggestions []string
	Cause       error
	Context     map[string]any
}

// Error implements the error interface
func (e *CLIError) Error() string {
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewError creates a new CLIError with the given type and message
func NewError(typ ErrorType, message string) *CLIError {
	return &CLIError{
		Type:        typ,
		Message:     message,
		Suggestions: make([]string, 0),
		Context:     make(map[string]any),
	}
}

// WithSuggestion adds a suggestion to the error
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithCause adds an underlying cause to the error
func (e *CLIError) WithCause(cause error) *CLIError {
	e.Cause = cause
	return e
}

// WithContext adds context information to the error
func (e *CLIError) WithContext(key string, value any) *CLIError {
	e.Context[key] = value
	return e
}

// ErrorHandler turns parse errors into CLIErrors with suggestions
type ErrorHandler struct {
	suggestFlags    bool
	showHelpOnError bool
	customHandlers  map[ErrorType]func(*CLIError) *CLIError
}

// NewErrorHandler creates a new error handler with flag suggestions enabled
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		suggestFlags:   true,
		customHandlers: make(map[ErrorType]func(*CLIError) *CLIError),
	}
}

// SuggestFlags enables/disables "Did you mean" hints for unknown flags
func (eh *ErrorHandler) SuggestFlags(enabled bool) *ErrorHandler {
	eh.suggestFlags = enabled
	return eh
}

// ShowHelpOnError controls whether help for the failing command is printed
// after the error message.
func (eh *ErrorHandler) ShowHelpOnError(enabled bool) *ErrorHandler {
	eh.showHelpOnError = enabled
	return eh
}

// Handle registers a custom handler for a specific error type
func (eh *ErrorHandler) Handle(typ ErrorType, handler func(*CLIError) *CLIError) *ErrorHandler {
	eh.customHandlers[typ] = handler
	return eh
}

// ProcessError converts a ParseError into a CLIError
func (eh *ErrorHandler) ProcessError(parseErr *ParseError) *CLIError {
	err := NewError(parseErr.Type, parseErr.Message).WithCause(parseErr)
	if parseErr.Flag != "" {
		_ = err.WithContext("flag", parseErr.Flag)
	}
	if len(parseErr.Path) > 0 {
		_ = err.WithContext("command", parseErr.CommandPath())
	}

	switch parseErr.Type { // exhaustive over ErrorType
	case ErrorTypeUnknownFlag:
		if eh.suggestFlags && parseErr.Suggestion != "" {
			_ = err.WithSuggestion(fmt.Sprintf("Did you mean '--%s'?", parseErr.Suggestion))
		}
	case ErrorTypeUnknownCommand:
		if eh.suggestFlags && parseErr.Suggestion != "" {
			_ = err.WithSuggestion(fmt.Sprintf("Did you mean '%s'?", parseErr.Suggestion))
		}
	case ErrorTypeInvalidBooleanLiteral:
		_ = err.WithSuggestion("Boolean flags accept only 'true' or 'false' after them.")
	case ErrorTypeInvalidNumberLiteral, ErrorTypeMissingRequired, ErrorTypeInvalidSchema:
		// No suggestions for these by default.
	}

	if handler, exists := eh.customHandlers[err.Type]; exists {
		err = handler(err)
	}
	return err
}

// Format renders a CLIError as printed by App
func (eh *ErrorHandler) Format(err *CLIError) string {
	return eh.format(err, nil)
}

// format renders err, coloring it through io when io is non-nil
func (eh *ErrorHandler) format(err *CLIError, io *console.IOManager) string {
	paint := func(s string, attrs ...color.Attribute) string {
		if io == nil {
			return s
		}
		return io.Paint(s, attrs...)
	}

	var builder strings.Builder
	builder.WriteString(paint("Error:", color.FgRed, color.Bold))
	builder.WriteString(" ")
	builder.WriteString(err.Message)
	for _, suggestion := range err.Suggestions {
		builder.WriteString("\n  ")
		builder.WriteString(paint(suggestion, color.FgYellow))
	}
	return builder.String()
}
