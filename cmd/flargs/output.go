package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dzonerzy/flargs/console"
	"github.com/dzonerzy/flargs/flargs"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// parseOutput is the flat view of a Result printed by the parse command
type parseOutput struct {
	Path    []string       `json:"path" yaml:"path"`
	Flags   map[string]any `json:"flags" yaml:"flags"`
	Params  map[string]any `json:"params" yaml:"params"`
	Args    []string       `json:"args" yaml:"args"`
	Version string         `json:"version,omitempty" yaml:"version,omitempty"`
}

func newParseOutput(result *flargs.Result) parseOutput {
	out := parseOutput{
		Path:   result.Path,
		Flags:  result.Flat,
		Params: result.Params,
		Args:   result.Args,
	}
	if out.Args == nil {
		out.Args = []string{}
	}
	if number, ok := result.VersionRequested(); ok {
		out.Version = number
	}
	return out
}

func writeValue(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

type schemaSummary struct {
	commands, flags, params int
}

func summarize(cmd *flargs.Command) schemaSummary {
	s := schemaSummary{commands: 1, flags: len(cmd.Flags()), params: len(cmd.Params())}
	for _, child := range cmd.Commands() {
		c := summarize(child)
		s.commands += c.commands
		s.flags += c.flags
		s.params += c.params
	}
	return s
}

// writeTree prints one line per command, indented by depth, followed by its
// flags and params
func writeTree(w io.Writer, term *console.IOManager, cmd *flargs.Command) error {
	var b strings.Builder
	treeNode(&b, term, cmd, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func treeNode(b *strings.Builder, term *console.IOManager, cmd *flargs.Command, depth int) {
	indent := strings.Repeat("  ", depth)

	b.WriteString(indent + term.Paint(cmd.Name(), color.Bold))
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		b.WriteString(" (" + strings.Join(aliases, ", ") + ")")
	}
	if v := cmd.Version(); v != nil {
		b.WriteString(" " + term.Faint("v"+v.Number))
	}
	if cmd.Description() != "" {
		b.WriteString("  " + cmd.Description())
	}
	b.WriteByte('\n')

	for _, f := range cmd.Flags() {
		line := "--" + f.Name
		if f.Shorthand != "" {
			line += ", -" + f.Shorthand
		}
		line += " " + string(f.Type)
		if f.Array {
			line += "..."
		}
		if f.Required {
			line += " " + term.Yellow("required")
		}
		b.WriteString(indent + "  " + term.Cyan(line) + "\n")
	}
	for _, p := range cmd.Params() {
		label := "[" + p.Name + "]"
		if p.Required {
			label = "<" + p.Name + ">"
		}
		if p.Array {
			label += "..."
		}
		b.WriteString(indent + "  " + label + " " + string(p.Type) + "\n")
	}

	for _, child := range cmd.Commands() {
		treeNode(b, term, child, depth+1)
	}
}
