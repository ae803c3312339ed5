package flargs

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/dzonerzy/flargs/console"
)

// WriteHelp renders the help screen of the last command in path to w. The
// preceding commands are its ancestors, root first; their flags are listed
// as inherited unless a deeper command shadows them. A nil term prints
// without colors.
func WriteHelp(w io.Writer, term *console.IOManager, path ...*Command) error {
	if len(path) == 0 {
		return &SchemaError{Message: "help requires a command"}
	}
	h := helpWriter{io: term}
	cmd := path[len(path)-1]

	if cmd.description != "" {
		h.line(cmd.description)
		h.line("")
	}

	h.line(h.bold("Usage:"))
	h.line("  " + usageLine(path))
	if len(cmd.commands) > 0 {
		h.line("  " + commandNames(path) + " COMMAND")
	}

	if len(cmd.aliases) > 0 {
		h.line("")
		h.line(h.bold("Aliases:") + " " + strings.Join(cmd.aliases, ", "))
	}

	if v := findVersion(path); v != nil && v.Number != "" {
		h.line("")
		h.line(h.bold("Version:") + " " + v.Number)
	}

	if len(cmd.params) > 0 {
		rows := make([][2]string, 0, len(cmd.params))
		for _, p := range cmd.params {
			rows = append(rows, [2]string{paramLabel(p), describe(p.Description, p.Required, p.Default)})
		}
		h.section("Arguments:", rows)
	}

	if len(cmd.flags) > 0 {
		h.section("Flags:", flagRows(cmd.flags))
	}

	if inherited := inheritedFlags(path); len(inherited) > 0 {
		h.section("Inherited Flags:", flagRows(inherited))
	}

	if len(cmd.commands) > 0 {
		rows := make([][2]string, 0, len(cmd.commands))
		for _, child := range cmd.commands {
			desc := child.description
			if len(child.aliases) > 0 {
				desc = strings.TrimSpace(desc + " (aliases: " + strings.Join(child.aliases, ", ") + ")")
			}
			rows = append(rows, [2]string{child.name, desc})
		}
		h.section("Commands:", rows)

		h.line("")
		h.line(fmt.Sprintf("Use \"%s COMMAND --help\" for more information about a command.", commandNames(path)))
	}

	_, err := io.WriteString(w, h.b.String())
	return err
}

type helpWriter struct {
	io *console.IOManager
	b  strings.Builder
}

func (h *helpWriter) line(s string) {
	h.b.WriteString(s)
	h.b.WriteByte('\n')
}

func (h *helpWriter) bold(s string) string {
	if h.io == nil {
		return s
	}
	return h.io.Bold(s)
}

func (h *helpWriter) cyan(s string) string {
	if h.io == nil {
		return s
	}
	return h.io.Cyan(s)
}

// section writes a heading followed by two aligned columns. Padding is
// computed on the plain text so escape codes do not skew it.
func (h *helpWriter) section(title string, rows [][2]string) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}

	h.line("")
	h.line(h.bold(title))
	for _, row := range rows {
		if row[1] == "" {
			h.line("  " + h.cyan(row[0]))
			continue
		}
		h.line("  " + h.cyan(row[0]) + strings.Repeat(" ", width-len(row[0])+3) + row[1])
	}
}

func commandNames(path []*Command) string {
	names := make([]string, len(path))
	for i, cmd := range path {
		names[i] = cmd.name
	}
	return strings.Join(names, " ")
}

func usageLine(path []*Command) string {
	cmd := path[len(path)-1]
	parts := []string{commandNames(path)}
	if len(cmd.flags) > 0 || len(inheritedFlags(path)) > 0 {
		parts = append(parts, "[FLAGS]")
	}
	for _, p := range cmd.params {
		parts = append(parts, paramLabel(p))
	}
	return strings.Join(parts, " ")
}

func paramLabel(p *Param) string {
	label := p.Name
	if p.Array {
		label += "..."
	}
	if p.Required {
		return "<" + label + ">"
	}
	return "[" + label + "]"
}

func flagRows(flags []*Flag) [][2]string {
	rows := make([][2]string, 0, len(flags))
	for _, f := range flags {
		label := "--" + f.Name
		if f.Shorthand != "" {
			label += ", -" + f.Shorthand
		}
		if f.RequiresValue() {
			label += " " + string(f.Type)
		}
		if f.Array {
			label += "..."
		}
		rows = append(rows, [2]string{label, describe(f.Description, f.Required, f.Default)})
	}
	return rows
}

func describe(description string, required bool, def any) string {
	parts := make([]string, 0, 3)
	if description != "" {
		parts = append(parts, description)
	}
	if required {
		parts = append(parts, "(required)")
	}
	if def != nil {
		parts = append(parts, "(default: "+formatDefault(def)+")")
	}
	return strings.Join(parts, " ")
}

func formatDefault(v any) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []string:
		items := make([]string, len(x))
		for i, item := range x {
			items[i] = strconv.Quote(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case []float64:
		items := make([]string, len(x))
		for i, item := range x {
			items[i] = strconv.FormatFloat(item, 'g', -1, 64)
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		return fmt.Sprint(x)
	}
}

// inheritedFlags returns the ancestor flags still resolvable from the last
// command in path, innermost ancestor first.
func inheritedFlags(path []*Command) []*Flag {
	cmd := path[len(path)-1]
	var seen []string
	for _, f := range cmd.flags {
		seen = append(seen, f.Name)
	}

	var out []*Flag
	for i := len(path) - 2; i >= 0; i-- {
		for _, f := range path[i].flags {
			if slices.Contains(seen, f.Name) {
				continue
			}
			seen = append(seen, f.Name)
			out = append(out, f)
		}
	}
	return out
}

func findVersion(path []*Command) *Version {
	for i := len(path) - 1; i >= 0; i-- {
		if v := path[i].version; v != nil {
			return v
		}
	}
	return nil
}

// commandChain resolves a path of canonical names, root first, against root
func commandChain(root *Command, names []string) []*Command {
	chain := []*Command{root}
	cmd := root
	for _, name := range names[min(1, len(names)):] {
		next := cmd.Subcommand(name)
		if next == nil {
			break
		}
		chain = append(chain, next)
		cmd = next
	}
	return chain
}
