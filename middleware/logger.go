package middleware

import (
	"time"

	"github.com/dzonerzy/flargs/console"
	"github.com/dzonerzy/flargs/internal/pool"
)

// requestInfoPool recycles RequestInfo values between actions
var requestInfoPool = pool.NewPoolWithReset(
	func() *RequestInfo {
		return &RequestInfo{}
	},
	func(info *RequestInfo) {
		info.Command = ""
		info.Args = info.Args[:0]
		info.StartTime = time.Time{}
		info.Duration = 0
		info.Error = nil
	},
)

// RequestInfo contains information about one action execution
type RequestInfo struct {
	Command   string
	Args      []string
	StartTime time.Time
	Duration  time.Duration
	Error     error
}

func (info *RequestInfo) fields(includeArgs bool) console.Fields {
	fields := console.Fields{"command": info.Command}
	if info.Duration > 0 {
		fields["duration_ms"] = info.Duration.Milliseconds()
	}
	if includeArgs && len(info.Args) > 0 {
		fields["args"] = append([]string(nil), info.Args...)
	}
	if info.Error != nil {
		fields["error"] = info.Error.Error()
	}
	return fields
}

// Logger creates a middleware that logs every action: a debug entry when it
// starts and a success or error entry with its duration when it returns.
func Logger(options ...MiddlewareOption) Middleware {
	config := newConfig(options)
	logger := config.Logger

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			info := requestInfoPool.Get()
			defer requestInfoPool.Put(info)

			info.Command = commandPath(ctx)
			info.Args = append(info.Args, ctx.Args()...)
			info.StartTime = time.Now()

			if logger.Level() <= console.LevelDebug {
				logger.LogFields(console.LevelDebug, "start", info.fields(config.IncludeArgs))
			}

			err := next(ctx)

			info.Duration = time.Since(info.StartTime)
			info.Error = err
			if err != nil {
				logger.LogFields(console.LevelError, "failed", info.fields(config.IncludeArgs))
			} else {
				logger.LogFields(console.LevelSuccess, "done", info.fields(config.IncludeArgs))
			}
			return err
		}
	}
}

// DebugLogger logs through a debug-level copy of logger so action starts are
// reported too. logger itself keeps its level.
func DebugLogger(logger *console.Logger) Middleware {
	return Logger(WithLogger(logger.Clone().WithLevel(console.LevelDebug)))
}

// JSONLogger logs through a copy of logger that writes one JSON object per
// entry. logger itself keeps its format.
func JSONLogger(logger *console.Logger) Middleware {
	return Logger(WithLogger(logger.Clone().WithFormat(console.LogFormatJSON)))
}
