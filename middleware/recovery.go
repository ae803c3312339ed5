package middleware

import (
	"runtime"

	"github.com/dzonerzy/flargs/console"
)

// Recovery creates a middleware that turns a panicking action into a
// *RecoveryError. With stack traces enabled the stack is captured and logged.
func Recovery(options ...MiddlewareOption) Middleware {
	config := newConfig(options)

	return RecoveryWithHandler(func(panicVal any, command string, stack []byte) error {
		recoveryErr := &RecoveryError{
			Panic:   panicVal,
			Command: command,
			Stack:   stack,
		}
		if len(stack) > 0 {
			config.Logger.LogFields(console.LevelError, "panic", console.Fields{
				"command": command,
				"panic":   toString(panicVal),
				"stack":   string(stack),
			})
		}
		return recoveryErr
	}, options...)
}

// RecoveryWithHandler creates a recovery middleware with a custom panic handler
func RecoveryWithHandler(
	handler func(panicVal any, command string, stack []byte) error,
	options ...MiddlewareOption,
) Middleware {
	config := newConfig(options)

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack []byte
					if config.PrintStack {
						stack = make([]byte, config.StackSize)
						stack = stack[:runtime.Stack(stack, false)]
					}
					err = handler(r, commandPath(ctx), stack)
				}
			}()

			return next(ctx)
		}
	}
}

// RecoveryToError converts panics to errors without capturing stack traces
func RecoveryToError() Middleware {
	return Recovery(WithStackTrace(false))
}
