// Package console centralizes terminal IO for flargs applications: the
// streams an App writes to, color support detection and leveled logging.
package console

import (
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// IOManager holds the streams of an application and decides whether they
// get ANSI colors.
type IOManager struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	forceColor bool
	noColor    bool
}

// New returns a manager bound to process stdio
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

// WithIn sets the input reader used by the manager and returns the manager for chaining.
func (m *IOManager) WithIn(r io.Reader) *IOManager { m.in = r; return m }

// WithOut sets the standard output writer and returns the manager for chaining.
func (m *IOManager) WithOut(w io.Writer) *IOManager { m.out = w; return m }

// WithErr sets the standard error writer and returns the manager for chaining.
func (m *IOManager) WithErr(w io.Writer) *IOManager { m.err = w; return m }

// ForceColor forces color output on, regardless of environment.
func (m *IOManager) ForceColor() *IOManager { m.forceColor = true; m.noColor = false; return m }

// NoColor disables color output, regardless of environment.
func (m *IOManager) NoColor() *IOManager { m.noColor = true; m.forceColor = false; return m }

// ColorAuto uses environment heuristics to determine color support.
func (m *IOManager) ColorAuto() *IOManager { m.noColor = false; m.forceColor = false; return m }

// In returns the configured input reader.
func (m *IOManager) In() io.Reader { return m.in }

// Out returns the configured standard output writer.
func (m *IOManager) Out() io.Writer { return m.out }

// Err returns the configured standard error writer.
func (m *IOManager) Err() io.Writer { return m.err }

// IsTTY reports whether the output writer is a terminal
func (m *IOManager) IsTTY() bool {
	return isTerminal(m.out)
}

// Width returns the terminal width, falling back to $COLUMNS and then 80
func (m *IOManager) Width() int {
	if f, ok := m.out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if w, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && w > 0 {
		return w
	}
	return 80
}

// SupportsColor reports whether output should carry ANSI colors. Explicit
// settings win over NO_COLOR, which wins over FORCE_COLOR.
func (m *IOManager) SupportsColor() bool {
	switch {
	case m.noColor:
		return false
	case m.forceColor:
		return true
	case os.Getenv("NO_COLOR") != "":
		return false
	case os.Getenv("FORCE_COLOR") != "":
		return true
	}
	if !m.IsTTY() {
		return false
	}
	t := os.Getenv("TERM")
	return t != "" && t != "dumb"
}

// Paint renders s with the given attributes when color is supported
func (m *IOManager) Paint(s string, attrs ...color.Attribute) string {
	if !m.SupportsColor() || len(attrs) == 0 {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// Bold returns s in bold when color is supported; otherwise s unchanged.
func (m *IOManager) Bold(s string) string { return m.Paint(s, color.Bold) }

// Faint returns s in faint intensity when supported; otherwise s unchanged.
func (m *IOManager) Faint(s string) string { return m.Paint(s, color.Faint) }

// Red is used for errors
func (m *IOManager) Red(s string) string { return m.Paint(s, color.FgRed) }

// Green is used for success messages
func (m *IOManager) Green(s string) string { return m.Paint(s, color.FgGreen) }

// Yellow is used for warnings and suggestions
func (m *IOManager) Yellow(s string) string { return m.Paint(s, color.FgYellow) }

// Cyan is used for flag and command names in help output
func (m *IOManager) Cyan(s string) string { return m.Paint(s, color.FgCyan) }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
