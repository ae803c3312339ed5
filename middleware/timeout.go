package middleware

import (
	"context"
	"time"
)

// Timeout creates a middleware that fails the action with a *TimeoutError
// once duration elapses. The action keeps running in its goroutine but its
// context is canceled, so well-behaved actions stop on ctx.Done().
func Timeout(duration time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			parent := context.Background()
			if c, ok := any(ctx).(interface{ Context() context.Context }); ok {
				parent = c.Context()
			}
			timeoutCtx, cancel := context.WithTimeout(parent, duration)
			defer cancel()

			resultChan := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						resultChan <- &RecoveryError{
							Panic:   r,
							Command: commandPath(ctx),
						}
					}
				}()
				resultChan <- next(ctx)
			}()

			select {
			case err := <-resultChan:
				return err
			case <-timeoutCtx.Done():
				if err := parent.Err(); err != nil {
					return err
				}
				ctx.Cancel()
				return &TimeoutError{
					Duration: duration,
					Command:  commandPath(ctx),
				}
			case <-ctx.Done():
				return context.Canceled
			}
		}
	}
}

// TimeoutWithDefault creates a timeout middleware with the default timeout from config
func TimeoutWithDefault(options ...MiddlewareOption) Middleware {
	return Timeout(newConfig(options).DefaultTimeout)
}

// TimeoutPerCommand applies a timeout chosen by dotted command path
// (e.g. "root.build"). Paths missing from the map use defaultTimeout.
func TimeoutPerCommand(commandTimeouts map[string]time.Duration, defaultTimeout time.Duration) Middleware {
	return DynamicTimeout(func(ctx Context) time.Duration {
		if timeout, ok := commandTimeouts[commandPath(ctx)]; ok {
			return timeout
		}
		return defaultTimeout
	})
}

// DynamicTimeout computes the timeout from the Context at runtime. A
// non-positive duration runs the action without a timeout.
func DynamicTimeout(timeoutFunc func(ctx Context) time.Duration) Middleware {
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			duration := timeoutFunc(ctx)
			if duration <= 0 {
				return next(ctx)
			}
			return Timeout(duration)(next)(ctx)
		}
	}
}

// TimeoutFromFlag reads the timeout in seconds from a number flag, using
// defaultTimeout when the flag has no value.
func TimeoutFromFlag(flagName string, defaultTimeout time.Duration) Middleware {
	return DynamicTimeout(func(ctx Context) time.Duration {
		if seconds, ok := ctx.Number(flagName); ok {
			return time.Duration(seconds * float64(time.Second))
		}
		return defaultTimeout
	})
}
