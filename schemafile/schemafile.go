// Package schemafile reads and writes command schemas as YAML, TOML or JSON
// documents and turns them into flargs builders.
//
// A document mirrors the builder API:
//
//	name: tool
//	version: 1.0.0
//	help: true
//	flags:
//	  - {name: verbose, short: V, type: boolean}
//	commands:
//	  - name: build
//	    aliases: [b]
//	    flags:
//	      - {name: jobs, short: j, type: number, default: 1}
//	    params:
//	      - {name: dir, default: "."}
package schemafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dzonerzy/flargs/flargs"
	"gopkg.in/yaml.v3"
)

// Format is a schema document encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for extensions and names that map to no Format
var ErrUnknownFormat = errors.New("unknown schema format")

// ParseFormat maps a name such as "yml" or "JSON" to its Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath picks the Format from a file extension
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Command is the document form of flargs.Command
type Command struct {
	Name        string    `yaml:"name" toml:"name" json:"name"`
	Aliases     []string  `yaml:"aliases,omitempty" toml:"aliases,omitempty" json:"aliases,omitempty"`
	Description string    `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Version     string    `yaml:"version,omitempty" toml:"version,omitempty" json:"version,omitempty"`
	VersionFlag string    `yaml:"version_flag,omitempty" toml:"version_flag,omitempty" json:"version_flag,omitempty"`
	Help        bool      `yaml:"help,omitempty" toml:"help,omitempty" json:"help,omitempty"`
	Flags       []Flag    `yaml:"flags,omitempty" toml:"flags,omitempty" json:"flags,omitempty"`
	Params      []Param   `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"`
	Commands    []Command `yaml:"commands,omitempty" toml:"commands,omitempty" json:"commands,omitempty"`
}

// Flag is the document form of flargs.Flag
type Flag struct {
	Name        string `yaml:"name" toml:"name" json:"name"`
	Short       string `yaml:"short,omitempty" toml:"short,omitempty" json:"short,omitempty"`
	Description string `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Type        string `yaml:"type,omitempty" toml:"type,omitempty" json:"type,omitempty"`
	Required    bool   `yaml:"required,omitempty" toml:"required,omitempty" json:"required,omitempty"`
	Array       bool   `yaml:"array,omitempty" toml:"array,omitempty" json:"array,omitempty"`
	Default     any    `yaml:"default,omitempty" toml:"default" json:"default,omitempty"`
}

// Param is the document form of flargs.Param
type Param struct {
	Name        string `yaml:"name" toml:"name" json:"name"`
	Description string `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`
	Type        string `yaml:"type,omitempty" toml:"type,omitempty" json:"type,omitempty"`
	Required    bool   `yaml:"required,omitempty" toml:"required,omitempty" json:"required,omitempty"`
	Array       bool   `yaml:"array,omitempty" toml:"array,omitempty" json:"array,omitempty"`
	Default     any    `yaml:"default,omitempty" toml:"default" json:"default,omitempty"`
}

// Load reads the schema file at path and builds it. The format comes from
// the file extension.
func Load(path string) (*flargs.Command, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cmd, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cmd, nil
}

// ReadFile decodes the schema document at path without building it
func ReadFile(path string) (*Command, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// Decode reads one schema document. Unknown keys are rejected.
func Decode(r io.Reader, format Format) (*Command, error) {
	var doc Command
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&doc)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml: unknown key %q", undecoded[0].String())
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &doc, nil
}

// Encode writes doc in the given format
func Encode(w io.Writer, format Format, doc *Command) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Marshal is Encode into a byte slice
func Marshal(format Format, doc *Command) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, format, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Build validates the document through the flargs builders
func (c *Command) Build() (*flargs.Command, error) {
	b, err := c.Builder()
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// Builder converts the document into a CommandBuilder
func (c *Command) Builder() (flargs.CommandBuilder, error) {
	b := flargs.NewCommand(c.Name).Description(c.Description)
	for _, alias := range c.Aliases {
		b = b.Alias(alias)
	}

	versionFlag := c.VersionFlag
	if versionFlag == "" {
		versionFlag = "version"
	}
	if c.Version != "" && !slices.ContainsFunc(c.Flags, func(f Flag) bool { return f.Name == versionFlag }) {
		if c.VersionFlag != "" {
			b = b.Version(c.Version, flargs.NewFlag(c.VersionFlag))
		} else {
			b = b.Version(c.Version)
		}
	}
	if c.Help && !slices.ContainsFunc(c.Flags, func(f Flag) bool { return f.Name == "help" }) {
		b = b.Help()
	}

	for _, f := range c.Flags {
		fb, err := f.builder()
		if err != nil {
			return b, commandError(c.Name, err)
		}
		if c.Version != "" && f.Name == versionFlag {
			b = b.Version(c.Version, fb)
			continue
		}
		b = b.Flag(fb)
	}

	for _, p := range c.Params {
		pb, err := p.builder()
		if err != nil {
			return b, commandError(c.Name, err)
		}
		b = b.Param(pb)
	}

	for i := range c.Commands {
		child, err := c.Commands[i].Builder()
		if err != nil {
			return b, commandError(c.Name, err)
		}
		b = b.Command(child)
	}
	return b, nil
}

func (f Flag) builder() (flargs.FlagBuilder, error) {
	b := flargs.NewFlag(f.Name).Short(f.Short).Description(f.Description)
	switch valueType(f.Type) {
	case flargs.TypeNumber:
		b = b.Number()
	case flargs.TypeBoolean:
		b = b.Boolean()
	case flargs.TypeString:
		b = b.String()
	default:
		return b, fmt.Errorf("flag %q: unknown type %q", f.Name, f.Type)
	}
	if f.Required {
		b = b.Required()
	}
	if f.Array {
		b = b.Array()
	}
	if f.Default != nil {
		b = b.Default(f.Default)
	}
	return b, nil
}

func (p Param) builder() (flargs.ParamBuilder, error) {
	b := flargs.NewParam(p.Name).Description(p.Description)
	switch valueType(p.Type) {
	case flargs.TypeNumber:
		b = b.Number()
	case flargs.TypeBoolean:
		b = b.Boolean()
	case flargs.TypeString:
		b = b.String()
	default:
		return b, fmt.Errorf("param %q: unknown type %q", p.Name, p.Type)
	}
	if p.Required {
		b = b.Required()
	}
	if p.Array {
		b = b.Array()
	}
	if p.Default != nil {
		b = b.Default(p.Default)
	}
	return b, nil
}

func valueType(name string) flargs.ValueType {
	switch strings.ToLower(name) {
	case "", "string", "str":
		return flargs.TypeString
	case "number", "num", "float", "int":
		return flargs.TypeNumber
	case "boolean", "bool":
		return flargs.TypeBoolean
	}
	return flargs.ValueType(name)
}

func commandError(name string, err error) error {
	var se *flargs.SchemaError
	if errors.As(err, &se) {
		return err
	}
	return &flargs.SchemaError{Command: name, Message: err.Error()}
}

// FromCommand converts a built schema back into its document form
func FromCommand(cmd *flargs.Command) *Command {
	doc := &Command{
		Name:        cmd.Name(),
		Aliases:     slices.Clone(cmd.Aliases()),
		Description: cmd.Description(),
	}
	if v := cmd.Version(); v != nil {
		doc.Version = v.Number
		if v.FlagName != "version" {
			doc.VersionFlag = v.FlagName
		}
	}
	for _, f := range cmd.Flags() {
		doc.Flags = append(doc.Flags, Flag{
			Name:        f.Name,
			Short:       f.Shorthand,
			Description: f.Description,
			Type:        string(f.Type),
			Required:    f.Required,
			Array:       f.Array,
			Default:     f.Default,
		})
	}
	for _, p := range cmd.Params() {
		doc.Params = append(doc.Params, Param{
			Name:        p.Name,
			Description: p.Description,
			Type:        string(p.Type),
			Required:    p.Required,
			Array:       p.Array,
			Default:     p.Default,
		})
	}
	for _, child := range cmd.Commands() {
		doc.Commands = append(doc.Commands, *FromCommand(child))
	}
	return doc
}
