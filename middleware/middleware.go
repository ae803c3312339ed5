// Package middleware provides built-in middleware for flargs applications:
// Logger, Recovery, Timeout and Validator.
package middleware

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dzonerzy/flargs/console"
)

// This package defines middleware using interfaces to avoid import cycles.
// The flargs package imports it and *flargs.Context satisfies Context.

// Context describes the runtime information and lifecycle controls that
// middleware can rely on. It is implemented by *flargs.Context.
type Context interface {
	// Done returns a channel that is closed when the action's context is
	// canceled or times out.
	Done() <-chan struct{}

	// Cancel requests cancellation of the current action's context. It is
	// idempotent.
	Cancel()

	// Args returns the positional tokens no param consumed. Read-only.
	Args() []string

	// Path returns the invoked command names, root first. Read-only.
	Path() []string

	// Set stores a key/value pair in the context metadata. Keys should be
	// namespaced to avoid collisions (e.g., "logger.request_id").
	Set(key string, value any)

	// Get retrieves a value previously stored via Set, or nil.
	Get(key string) any

	// String returns the merged value of a string flag and whether it is set.
	String(name string) (string, bool)

	// Number returns the merged value of a number flag and whether it is set.
	Number(name string) (float64, bool)

	// Bool returns the merged value of a boolean flag and whether it is set.
	Bool(name string) (bool, bool)

	// Strings returns the merged value of a string array flag. Read-only.
	Strings(name string) ([]string, bool)

	// Param returns the bound value of a positional param.
	Param(name string) (any, bool)

	// Command returns the innermost invoked command.
	Command() Command
}

// Command interface will be satisfied by *flargs.Command
type Command interface {
	Name() string
	Description() string
}

// ActionFunc represents command action function signature
type ActionFunc func(ctx Context) error

// Middleware defines the middleware function signature
type Middleware func(next ActionFunc) ActionFunc

// MiddlewareChain represents a chain of middleware functions
type MiddlewareChain []Middleware

// Apply applies the middleware chain to an ActionFunc. The first middleware
// in the chain is the outermost.
func (chain MiddlewareChain) Apply(action ActionFunc) ActionFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		action = chain[i](action)
	}
	return action
}

// Use returns a new chain with the provided middleware appended.
func (chain MiddlewareChain) Use(middleware ...Middleware) MiddlewareChain {
	return append(chain[:len(chain):len(chain)], middleware...)
}

// Chain creates a new middleware chain from the provided middleware, preserving
// order.
func Chain(middleware ...Middleware) MiddlewareChain {
	return MiddlewareChain(middleware)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Value   any
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents a timeout error
type TimeoutError struct {
	Duration time.Duration
	Command  string
}

func (e *TimeoutError) Error() string {
	return "command '" + e.Command + "' timed out after " + e.Duration.String()
}

// RecoveryError represents a panic recovery
type RecoveryError struct {
	Panic   any
	Command string
	Stack   []byte
}

func (e *RecoveryError) Error() string {
	return "command '" + e.Command + "' panicked: " + toString(e.Panic)
}

// MiddlewareConfig contains configuration for middleware behavior
type MiddlewareConfig struct {
	Logger           *console.Logger // nil means a stderr logger at info level
	IncludeArgs      bool
	PrintStack       bool
	StackSize        int
	DefaultTimeout   time.Duration
	CustomValidators map[string]ValidatorFunc
}

// MiddlewareOption configures a MiddlewareConfig
type MiddlewareOption func(config *MiddlewareConfig)

// DefaultConfig returns the configuration used when no options are given
func DefaultConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		IncludeArgs:      true,
		PrintStack:       true,
		StackSize:        4096,
		DefaultTimeout:   30 * time.Second,
		CustomValidators: make(map[string]ValidatorFunc),
	}
}

func newConfig(options []MiddlewareOption) *MiddlewareConfig {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	if config.Logger == nil {
		config.Logger = console.NewLogger(console.New().WithOut(os.Stderr))
	}
	return config
}

// WithLogger routes middleware output through logger
func WithLogger(logger *console.Logger) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.Logger = logger
	}
}

// WithArgs controls whether positional args are logged
func WithArgs(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.IncludeArgs = enabled
	}
}

// WithTimeout sets the timeout used by TimeoutWithDefault
func WithTimeout(timeout time.Duration) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.DefaultTimeout = timeout
	}
}

// WithStackTrace controls whether Recovery captures and logs stack traces
func WithStackTrace(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.PrintStack = enabled
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return x
	case error:
		return x.Error()
	default:
		return fmt.Sprint(x)
	}
}

// commandPath returns the dotted invoked path, falling back to the command name
func commandPath(ctx Context) string {
	if path := ctx.Path(); len(path) > 0 {
		return strings.Join(path, ".")
	}
	cmd := ctx.Command()
	if cmd == nil {
		return "unknown"
	}
	return cmd.Name()
}
