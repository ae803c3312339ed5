package console

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "SUCCESS"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name such as "debug" or "WARN" to its LogLevel
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "success":
		return LevelSuccess, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

func (l LogLevel) attribute() color.Attribute {
	switch l {
	case LevelDebug:
		return color.FgMagenta
	case LevelSuccess:
		return color.FgGreen
	case LevelWarning:
		return color.FgYellow
	case LevelError:
		return color.FgRed
	default:
		return color.FgBlue
	}
}

// LogFormat defines the output format for log messages
type LogFormat int

const (
	LogFormatText LogFormat = iota // [INFO] message key=value
	LogFormatJSON                  // one JSON object per line
)

// Rotation configures the rotated log file sink
type Rotation struct {
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultRotation keeps five 128MB files for at most 16 days
func DefaultRotation() Rotation {
	return Rotation{MaxSize: 128, MaxBackups: 5, MaxAge: 16}
}

// Fields are structured key/value pairs attached to a log entry
type Fields map[string]any

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Name      string `json:"name,omitempty"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
}

// Logger writes leveled messages to the IOManager streams and, optionally,
// to a rotated file. Terminal output is colored; file output never is.
type Logger struct {
	io           *IOManager
	level        LogLevel
	format       LogFormat
	name         string
	withTime     bool
	timeFormat   string
	errorsStderr bool

	mu   sync.Mutex
	file io.WriteCloser
}

// NewLogger creates a new logger bound to the given IOManager
func NewLogger(io *IOManager) *Logger {
	return &Logger{
		io:           io,
		level:        LevelInfo,
		timeFormat:   "2006-01-02 15:04:05",
		errorsStderr: true,
	}
}

// Clone returns a logger with the same settings that can be reconfigured
// without touching l. It writes to the same streams and file sink; closing
// the file stays the job of l.
func (l *Logger) Clone() *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		io:           l.io,
		level:        l.level,
		format:       l.format,
		name:         l.name,
		withTime:     l.withTime,
		timeFormat:   l.timeFormat,
		errorsStderr: l.errorsStderr,
		file:         l.file,
	}
}

// WithLevel sets the minimum level that is written
func (l *Logger) WithLevel(level LogLevel) *Logger {
	l.level = level
	return l
}

// Level returns the minimum level that is written
func (l *Logger) Level() LogLevel {
	return l.level
}

// WithFormat sets the log format and returns the logger for chaining
func (l *Logger) WithFormat(format LogFormat) *Logger {
	l.format = format
	return l
}

// WithName tags every entry with a component name
func (l *Logger) WithName(name string) *Logger {
	l.name = name
	return l
}

// WithTimestamp enables or disables timestamp in text output
func (l *Logger) WithTimestamp(enabled bool) *Logger {
	l.withTime = enabled
	return l
}

// WithTimeFormat sets the time format (Go time format string)
func (l *Logger) WithTimeFormat(format string) *Logger {
	l.timeFormat = format
	return l
}

// ErrorsToStderr controls whether errors and warnings go to stderr
func (l *Logger) ErrorsToStderr(enabled bool) *Logger {
	l.errorsStderr = enabled
	return l
}

// WithFile also writes every entry to path, rotating it with lumberjack
func (l *Logger) WithFile(path string, rotation Rotation) *Logger {
	return l.withFileWriter(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSize,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAge,
		Compress:   rotation.Compress,
	})
}

func (l *Logger) withFileWriter(w io.WriteCloser) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = w
	return l
}

// Close releases the file sink, if any
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Log outputs a log message at the specified level
func (l *Logger) Log(level LogLevel, format string, args ...any) {
	l.LogFields(level, fmt.Sprintf(format, args...), nil)
}

// LogFields outputs msg with structured fields at the specified level
func (l *Logger) LogFields(level LogLevel, msg string, fields Fields) {
	if level < l.level {
		return
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == LogFormatJSON {
		line := l.jsonLine(now, level, msg, fields)
		_, _ = l.selectWriter(level).Write(line)
		if l.file != nil {
			_, _ = l.file.Write(line)
		}
		return
	}

	_, _ = io.WriteString(l.selectWriter(level), l.textLine(now, level, msg, fields, l.io.SupportsColor(), l.withTime))
	if l.file != nil {
		// files always get timestamps and never colors
		_, _ = io.WriteString(l.file, l.textLine(now, level, msg, fields, false, true))
	}
}

func (l *Logger) jsonLine(now time.Time, level LogLevel, msg string, fields Fields) []byte {
	entry := logEntry{
		Timestamp: now.Format(time.RFC3339),
		Level:     level.String(),
		Name:      l.name,
		Message:   msg,
		Fields:    fields,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		line, _ = json.Marshal(logEntry{Timestamp: entry.Timestamp, Level: entry.Level, Message: msg})
	}
	return append(line, '\n')
}

func (l *Logger) textLine(now time.Time, level LogLevel, msg string, fields Fields, colored, stamp bool) string {
	var b strings.Builder

	tag := "[" + level.String() + "]"
	if colored {
		c := color.New(level.attribute(), color.Bold)
		c.EnableColor()
		tag = c.Sprint(tag)
	}
	b.WriteString(tag)

	if stamp {
		b.WriteString(" " + now.Format(l.timeFormat))
	}
	if l.name != "" {
		b.WriteString(" (" + l.name + ")")
	}
	b.WriteString(" " + msg)

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		fmt.Fprintf(&b, " %s=%v", key, formatField(fields[key]))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatField(v any) any {
	switch x := v.(type) {
	case string:
		if strings.ContainsAny(x, " \t\n\"") {
			return fmt.Sprintf("%q", x)
		}
	case []string:
		return "[" + strings.Join(x, " ") + "]"
	}
	return v
}

// selectWriter chooses stdout or stderr based on log level and configuration
func (l *Logger) selectWriter(level LogLevel) io.Writer {
	if l.errorsStderr && (level == LevelError || level == LevelWarning) {
		return l.io.Err()
	}
	return l.io.Out()
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...any) {
	l.Log(LevelDebug, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...any) {
	l.Log(LevelInfo, format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...any) {
	l.Log(LevelSuccess, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...any) {
	l.Log(LevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...any) {
	l.Log(LevelError, format, args...)
}
