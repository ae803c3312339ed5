package flargs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dzonerzy/flargs/console"
	"github.com/dzonerzy/flargs/internal/fuzzy"
	"github.com/dzonerzy/flargs/middleware"
)

// Special error types for graceful exits
var (
	ErrHelpShown    = errors.New("help shown")
	ErrVersionShown = errors.New("version shown")
)

// ActionFunc defines the command execution function
type ActionFunc func(*Context) error

// App runs actions bound to command paths of a schema. It parses the
// arguments, answers help and version requests, reports parse errors with
// suggestions and maps failures to exit codes.
type App struct {
	root *Command

	actions           map[string]ActionFunc
	middleware        []middleware.Middleware
	commandMiddleware map[string][]middleware.Middleware

	beforeAction ActionFunc
	afterAction  ActionFunc

	strict       bool
	parseOptions []ParseOption
	helpFlag     string

	errorHandler *ErrorHandler
	ioManager    *console.IOManager
	logger       *console.Logger
	exitCodes    *ExitCodeManager
}

// NewApp creates an application for the given schema. Strict mode is on.
func NewApp(root *Command) *App {
	return &App{
		root:              root,
		actions:           make(map[string]ActionFunc),
		commandMiddleware: make(map[string][]middleware.Middleware),
		strict:            true,
		helpFlag:          "help",
		errorHandler:      NewErrorHandler(),
		ioManager:         console.New(),
	}
}

// Root returns the schema the app runs
func (a *App) Root() *Command {
	return a.root
}

// Handle binds action to a command path. The path is dotted and may omit the
// root name: "build" and "tool.build" name the same command of root "tool",
// and "" names the root itself.
func (a *App) Handle(path string, action ActionFunc) *App {
	a.actions[a.pathKey(path)] = action
	return a
}

// Action binds the root command's action
func (a *App) Action(action ActionFunc) *App {
	return a.Handle("", action)
}

// Use appends middleware applied to every action
func (a *App) Use(mw ...middleware.Middleware) *App {
	a.middleware = append(a.middleware, mw...)
	return a
}

// UseFor appends middleware applied only to the action bound to path
func (a *App) UseFor(path string, mw ...middleware.Middleware) *App {
	key := a.pathKey(path)
	a.commandMiddleware[key] = append(a.commandMiddleware[key], mw...)
	return a
}

// Before registers a hook that runs before any action
func (a *App) Before(fn ActionFunc) *App {
	a.beforeAction = fn
	return a
}

// After registers a hook that runs after the action, even when it failed
func (a *App) After(fn ActionFunc) *App {
	a.afterAction = fn
	return a
}

// Strict toggles strict mode: required flags and params must receive a value.
func (a *App) Strict(enabled bool) *App {
	a.strict = enabled
	return a
}

// ParseOptions adds options passed to every parse
func (a *App) ParseOptions(opts ...ParseOption) *App {
	a.parseOptions = append(a.parseOptions, opts...)
	return a
}

// HelpFlag sets the boolean flag that asks for help ("help" by default).
// The flag still has to be declared, e.g. with CommandBuilder.Help.
func (a *App) HelpFlag(name string) *App {
	a.helpFlag = name
	return a
}

// WithIO replaces the terminal streams
func (a *App) WithIO(io *console.IOManager) *App {
	a.ioManager = io
	return a
}

// IO returns the app's IO manager
func (a *App) IO() *console.IOManager {
	if a.ioManager == nil {
		a.ioManager = console.New()
	}
	return a.ioManager
}

// WithLogger replaces the app logger
func (a *App) WithLogger(logger *console.Logger) *App {
	a.logger = logger
	return a
}

// Logger returns the app logger, writing to IO() at info level by default
func (a *App) Logger() *console.Logger {
	if a.logger == nil {
		a.logger = console.NewLogger(a.IO())
	}
	return a.logger
}

// ErrorHandler returns the app's error handler for configuration
func (a *App) ErrorHandler() *ErrorHandler {
	return a.errorHandler
}

// ExitCodes returns the exit-code manager for this app. Use it to override
// defaults or register custom mappings.
func (a *App) ExitCodes() *ExitCodeManager {
	if a.exitCodes == nil {
		a.exitCodes = newExitCodeManager()
	}
	return a.exitCodes
}

// Parse resolves args with the app's options without running anything
func (a *App) Parse(args []string) (*Result, error) {
	return a.parser(a.strict).Parse(a.root, args)
}

func (a *App) parser(strict bool) *Parser {
	opts := make([]ParseOption, 0, len(a.parseOptions)+1)
	if strict {
		opts = append(opts, WithStrict())
	}
	return NewParser(append(opts, a.parseOptions...)...)
}

// Run parses command line arguments and executes the appropriate action
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext runs the application with a context for cancellation
func (a *App) RunContext(ctx context.Context) error {
	return a.RunWithArgs(ctx, os.Args[1:])
}

// RunWithArgs runs the application with provided arguments
//
//nolint:gocognit,funlen // Main execution flow is inherently sequential
func (a *App) RunWithArgs(ctx context.Context, args []string) error {
	result, err := a.Parse(args)
	if err != nil && a.strict && IsErrorType(err, ErrorTypeMissingRequired) {
		// Help and version must work without the required values.
		if lenient, lenientErr := a.parser(false).Parse(a.root, args); lenientErr == nil && a.infoRequested(lenient) {
			result, err = lenient, nil
		}
	}
	if err != nil {
		return a.handleError(err)
	}

	a.Logger().LogFields(console.LevelDebug, "parsed", console.Fields{
		"command": result.CommandPath(),
		"args":    result.Args,
	})

	if infoErr := a.handleHelpAndVersion(result); infoErr != nil {
		return infoErr
	}

	action, ok := a.actions[result.CommandPath()]
	if !ok {
		if leftovers := innermostArgs(result); len(leftovers) > 0 && len(result.Command.commands) > 0 {
			return a.handleError(unknownCommand(result, leftovers[0]))
		}
		return a.showHelp(result)
	}

	execCtx := newContext(ctx, a, result)
	defer execCtx.Cancel()

	if a.beforeAction != nil {
		if beforeErr := a.beforeAction(execCtx); beforeErr != nil {
			return a.reportError(beforeErr)
		}
	}

	actionErr := a.wrapActionWithMiddleware(action, result.CommandPath())(execCtx)

	// If the action requested exit via context, prefer that
	if ee := execCtx.exitRequest(); ee != nil {
		actionErr = ee
	}

	if a.afterAction != nil {
		if afterErr := a.afterAction(execCtx); afterErr != nil && actionErr == nil {
			actionErr = afterErr
		}
	}

	return a.reportError(actionErr)
}

// RunAndGetExitCode executes the app and returns the mapped exit code according
// to ExitCodes(). Useful for embedding in your own main() without os.Exit.
func (a *App) RunAndGetExitCode() int {
	return a.ExitCodes().Resolve(a.Run())
}

// RunAndExit executes the app and terminates the process with the mapped exit
// code. Equivalent to os.Exit(a.RunAndGetExitCode()).
func (a *App) RunAndExit() {
	os.Exit(a.RunAndGetExitCode())
}

func (a *App) pathKey(path string) string {
	if a.root == nil {
		return path
	}
	switch {
	case path == "" || path == a.root.name:
		return a.root.name
	case strings.HasPrefix(path, a.root.name+"."):
		return path
	default:
		return a.root.name + "." + path
	}
}

// wrapActionWithMiddleware wraps the action with app-level and command-level middleware
func (a *App) wrapActionWithMiddleware(action ActionFunc, path string) ActionFunc {
	all := make([]middleware.Middleware, 0, len(a.middleware)+len(a.commandMiddleware[path]))
	all = append(all, a.middleware...)
	all = append(all, a.commandMiddleware[path]...)

	if len(all) == 0 {
		return action
	}

	wrapped := middleware.Chain(all...).Apply(func(ctx middleware.Context) error {
		flargsCtx, ok := ctx.(*Context)
		if !ok {
			return fmt.Errorf("invalid middleware context type %T", ctx)
		}
		return action(flargsCtx)
	})

	return func(ctx *Context) error {
		return wrapped(ctx)
	}
}

func (a *App) infoRequested(result *Result) bool {
	_, version := result.VersionRequested()
	return version || a.helpRequested(result)
}

func (a *App) helpRequested(result *Result) bool {
	help, _ := result.Bool(a.helpFlag)
	return help
}

func (a *App) handleHelpAndVersion(result *Result) error {
	if a.helpRequested(result) {
		if err := a.showHelp(result); err != nil {
			return err
		}
		return ErrHelpShown
	}

	if number, ok := result.VersionRequested(); ok {
		if _, err := fmt.Fprintln(a.IO().Out(), a.root.name, number); err != nil {
			return err
		}
		return ErrVersionShown
	}
	return nil
}

func (a *App) showHelp(result *Result) error {
	chain := make([]*Command, 0, len(result.Path))
	for n := result.Program; n != nil; n = n.Child {
		chain = append(chain, n.Command)
	}
	return WriteHelp(a.IO().Out(), a.IO(), chain...)
}

// handleError prints parse and schema failures and returns the error the
// caller maps to an exit code
func (a *App) handleError(err error) error {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return a.reportError(err)
	}

	cliErr := a.errorHandler.ProcessError(parseErr)
	fmt.Fprintln(a.IO().Err(), a.errorHandler.format(cliErr, a.IO()))

	if a.errorHandler.showHelpOnError && a.root != nil {
		fmt.Fprintln(a.IO().Err())
		_ = WriteHelp(a.IO().Err(), a.IO(), commandChain(a.root, parseErr.Path)...)
	}
	return cliErr
}

// reportError prints err unless it is nil or a bare exit request
func (a *App) reportError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return err
	}
	a.Logger().Error("%v", err)
	return err
}

// innermostArgs returns the words left over at the innermost command. Words
// left at outer levels were scanned before that command was entered and
// cannot be a mistyped child of it.
func innermostArgs(result *Result) []string {
	if n := result.Node(len(result.Path) - 1); n != nil {
		return n.Args
	}
	return nil
}

func unknownCommand(result *Result, word string) *ParseError {
	cmd := result.Command

	candidates := make([]string, 0, len(cmd.commands))
	for _, child := range cmd.commands {
		candidates = append(candidates, child.name)
		candidates = append(candidates, child.aliases...)
	}

	pe := &ParseError{
		Type:    ErrorTypeUnknownCommand,
		Message: fmt.Sprintf("unknown command '%s' for '%s'", word, strings.Join(result.Path, " ")),
		Token:   word,
		Path:    result.Path,
	}
	if suggestions := fuzzy.FindSuggestions(word, candidates, 2, 1); len(suggestions) > 0 {
		pe.Suggestion = suggestions[0]
	}
	return pe
}
