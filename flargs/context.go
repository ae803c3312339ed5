package flargs

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dzonerzy/flargs/console"
	"github.com/dzonerzy/flargs/middleware"
)

const exitRequestKey = "flargs.exit"

// Context is handed to actions: the parse Result plus lifecycle controls. It
// implements middleware.Context.
type Context struct {
	App      *App
	Result   *Result
	ctx      context.Context
	cancel   context.CancelFunc

	// an action abandoned by a timeout may still write after App reads
	mu       sync.RWMutex
	metadata map[string]any
}

func newContext(parent context.Context, app *App, result *Result) *Context {
	ctx, cancel := context.WithCancel(parent)
	return &Context{
		App:      app,
		Result:   result,
		ctx:      ctx,
		cancel:   cancel,
		metadata: make(map[string]any),
	}
}

// Context returns the underlying Go context for cancellation/timeouts
func (c *Context) Context() context.Context {
	return c.ctx
}

// Deadline returns the time when work done on behalf of this context should be canceled
func (c *Context) Deadline() (time.Time, bool) {
	return c.ctx.Deadline()
}

// Done returns a channel that's closed when work done on behalf of this context should be canceled
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Err returns a non-nil error value after Done is closed
func (c *Context) Err() error {
	return c.ctx.Err()
}

// Cancel cancels the context
func (c *Context) Cancel() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Set stores a key-value pair in the context metadata
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata == nil {
		c.metadata = make(map[string]any)
	}
	c.metadata[key] = value
}

// Get retrieves a value from the context metadata
func (c *Context) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.metadata == nil {
		return nil
	}
	return c.metadata[key]
}

// Exit asks App to finish with code once the action returns, and cancels
// the context.
func (c *Context) Exit(code int) {
	c.Set(exitRequestKey, &ExitError{Code: code})
	c.Cancel()
}

// ExitWithError is like Exit but also reports err.
func (c *Context) ExitWithError(err error, code int) {
	c.Set(exitRequestKey, &ExitError{Code: code, Err: err})
	c.Cancel()
}

// ExitOnError exits with the code the App's ExitCodeManager maps err to.
// A nil err is ignored.
func (c *Context) ExitOnError(err error) {
	if err == nil {
		return
	}
	c.ExitWithError(err, c.App.ExitCodes().Resolve(err))
}

func (c *Context) exitRequest() *ExitError {
	ee, _ := c.Get(exitRequestKey).(*ExitError)
	return ee
}

// IO accessors
func (c *Context) IO() *console.IOManager  { return c.App.IO() }
func (c *Context) Logger() *console.Logger { return c.App.Logger() }
func (c *Context) Stdout() io.Writer       { return c.App.IO().Out() }
func (c *Context) Stderr() io.Writer       { return c.App.IO().Err() }
func (c *Context) Stdin() io.Reader        { return c.App.IO().In() }

// Flag access delegates to Result; values are merged across the invoked
// path with the innermost command winning.

// String retrieves a string flag value
func (c *Context) String(name string) (string, bool) {
	return c.Result.String(name)
}

// MustString retrieves a string flag value with default fallback
func (c *Context) MustString(name, defaultValue string) string {
	if v, ok := c.Result.String(name); ok {
		return v
	}
	return defaultValue
}

// Number retrieves a number flag value
func (c *Context) Number(name string) (float64, bool) {
	return c.Result.Number(name)
}

// MustNumber retrieves a number flag value with default fallback
func (c *Context) MustNumber(name string, defaultValue float64) float64 {
	if v, ok := c.Result.Number(name); ok {
		return v
	}
	return defaultValue
}

// Bool retrieves a boolean flag value
func (c *Context) Bool(name string) (bool, bool) {
	return c.Result.Bool(name)
}

// MustBool retrieves a boolean flag value with default fallback
func (c *Context) MustBool(name string, defaultValue bool) bool {
	if v, ok := c.Result.Bool(name); ok {
		return v
	}
	return defaultValue
}

// Strings retrieves a string array flag value
func (c *Context) Strings(name string) ([]string, bool) {
	return c.Result.Strings(name)
}

// Numbers retrieves a number array flag value
func (c *Context) Numbers(name string) ([]float64, bool) {
	return c.Result.Numbers(name)
}

// Bools retrieves a boolean array flag value
func (c *Context) Bools(name string) ([]bool, bool) {
	return c.Result.Bools(name)
}

// Param retrieves the bound value of a positional param
func (c *Context) Param(name string) (any, bool) {
	return c.Result.Param(name)
}

// Command returns the innermost invoked command (implements middleware.Context interface)
func (c *Context) Command() middleware.Command {
	return c.Result.Command
}

// Path returns the invoked command names, root first
func (c *Context) Path() []string {
	return c.Result.Path
}

// Args returns the positional tokens no param consumed
func (c *Context) Args() []string {
	return c.Result.Args
}

// NArgs returns the number of unbound positional tokens
func (c *Context) NArgs() int {
	return len(c.Result.Args)
}

// Arg returns the unbound positional token at index i, or ""
func (c *Context) Arg(i int) string {
	if i >= 0 && i < len(c.Result.Args) {
		return c.Result.Args[i]
	}
	return ""
}
