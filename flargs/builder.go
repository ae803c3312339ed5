package flargs

import (
	"fmt"
	"math"
	"reflect"
	"slices"
)

// Builders are plain values: every method returns a modified copy and never
// touches the receiver, so a partially configured builder can be reused as a
// template for several commands.

// FlagBuilder provides a fluent, immutable API for describing a flag
type FlagBuilder struct {
	conf Flag
}

// NewFlag starts a string flag with the given name. The name may be empty
// and set later with Name.
func NewFlag(name string) FlagBuilder {
	return FlagBuilder{conf: Flag{Name: name, Type: TypeString}}
}

// Name sets the flag name
func (b FlagBuilder) Name(name string) FlagBuilder {
	b.conf.Name = name
	return b
}

// Short sets the shorthand token used with a single dash
func (b FlagBuilder) Short(shorthand string) FlagBuilder {
	b.conf.Shorthand = shorthand
	return b
}

// Description sets the help text
func (b FlagBuilder) Description(description string) FlagBuilder {
	b.conf.Description = description
	return b
}

// Required marks the flag as required (checked only by strict parsing)
func (b FlagBuilder) Required() FlagBuilder {
	b.conf.Required = true
	return b
}

// Number makes the flag numeric
func (b FlagBuilder) Number() FlagBuilder {
	b.conf.Type = TypeNumber
	return b
}

// String makes the flag a string flag (the default)
func (b FlagBuilder) String() FlagBuilder {
	b.conf.Type = TypeString
	return b
}

// Boolean makes the flag a switch that needs no value token
func (b FlagBuilder) Boolean() FlagBuilder {
	b.conf.Type = TypeBoolean
	return b
}

// Array lets the flag be repeated, accumulating values in order
func (b FlagBuilder) Array() FlagBuilder {
	b.conf.Array = true
	return b
}

// Default sets the value used when the flag is not given. Its shape must
// match the flag type: a scalar, or a slice for array flags.
func (b FlagBuilder) Default(value any) FlagBuilder {
	b.conf.Default = value
	return b
}

// Build validates the configuration and returns the flag descriptor
func (b FlagBuilder) Build() (*Flag, error) {
	if b.conf.Name == "" {
		return nil, &SchemaError{
			Message: `the "name" attribute is required for a flag, but no name was specified`,
		}
	}
	flag := b.conf
	if flag.Type == "" {
		flag.Type = TypeString
	}
	if !flag.Type.Valid() {
		return nil, &SchemaError{Flag: flag.Name, Message: "unsupported flag type: " + string(flag.Type)}
	}
	if flag.Default != nil {
		value, err := normalizeValue(flag.Type, flag.Array, flag.Default)
		if err != nil {
			return nil, &SchemaError{Flag: flag.Name, Message: "invalid default value", Cause: err}
		}
		flag.Default = value
	}
	return &flag, nil
}

// ParamBuilder provides a fluent, immutable API for describing a positional param
type ParamBuilder struct {
	conf Param
}

// NewParam starts a string param with the given name
func NewParam(name string) ParamBuilder {
	return ParamBuilder{conf: Param{Name: name, Type: TypeString}}
}

// Name sets the param name
func (b ParamBuilder) Name(name string) ParamBuilder {
	b.conf.Name = name
	return b
}

// Description sets the help text
func (b ParamBuilder) Description(description string) ParamBuilder {
	b.conf.Description = description
	return b
}

// Required marks the param as required
func (b ParamBuilder) Required() ParamBuilder {
	b.conf.Required = true
	return b
}

// Number makes the param numeric
func (b ParamBuilder) Number() ParamBuilder {
	b.conf.Type = TypeNumber
	return b
}

// String makes the param a string param (the default)
func (b ParamBuilder) String() ParamBuilder {
	b.conf.Type = TypeString
	return b
}

// Boolean makes the param accept only "true" or "false"
func (b ParamBuilder) Boolean() ParamBuilder {
	b.conf.Type = TypeBoolean
	return b
}

// Array makes the param collect every remaining positional token
func (b ParamBuilder) Array() ParamBuilder {
	b.conf.Array = true
	return b
}

// Default sets the value used when no token is bound to the param
func (b ParamBuilder) Default(value any) ParamBuilder {
	b.conf.Default = value
	return b
}

// Build validates the configuration and returns the param descriptor
func (b ParamBuilder) Build() (*Param, error) {
	if b.conf.Name == "" {
		return nil, &SchemaError{
			Message: `the "name" attribute is required for a param, but no name was specified`,
		}
	}
	param := b.conf
	if param.Type == "" {
		param.Type = TypeString
	}
	if !param.Type.Valid() {
		return nil, &SchemaError{Param: param.Name, Message: "unsupported param type: " + string(param.Type)}
	}
	if param.Default != nil {
		value, err := normalizeValue(param.Type, param.Array, param.Default)
		if err != nil {
			return nil, &SchemaError{Param: param.Name, Message: "invalid default value", Cause: err}
		}
		param.Default = value
	}
	return &param, nil
}

// CommandBuilder provides a fluent, immutable API for describing a command tree
type CommandBuilder struct {
	name        string
	aliases     []string
	description string
	flags       []FlagBuilder
	params      []ParamBuilder
	commands    []CommandBuilder
	version     *Version
	err         error // first configuration error, reported by Build
}

// NewCommand starts a command with the given name
func NewCommand(name string) CommandBuilder {
	return CommandBuilder{name: name}
}

// Name sets the command name
func (c CommandBuilder) Name(name string) CommandBuilder {
	c.name = name
	return c
}

// Alias adds an alternate invocation name
func (c CommandBuilder) Alias(alias string) CommandBuilder {
	c.aliases = append(slices.Clip(c.aliases), alias)
	return c
}

// Description sets the help text
func (c CommandBuilder) Description(description string) CommandBuilder {
	c.description = description
	return c
}

// Flag adds a flag
func (c CommandBuilder) Flag(flag FlagBuilder) CommandBuilder {
	c.flags = append(slices.Clip(c.flags), flag)
	return c
}

// FlagAs adds a flag under the given name
func (c CommandBuilder) FlagAs(name string, flag FlagBuilder) CommandBuilder {
	return c.Flag(flag.Name(name))
}

// Param adds a positional param. A param may not follow an array param, and a
// required param may not follow an optional one.
func (c CommandBuilder) Param(param ParamBuilder) CommandBuilder {
	if n := len(c.params); n > 0 && c.err == nil {
		prev := c.params[n-1].conf
		next := param.conf
		switch {
		case prev.Array:
			c.err = &SchemaError{
				Command: c.name,
				Param:   next.Name,
				Message: fmt.Sprintf("there cannot be any param after an array param; "+
					"the param %q is an array param, consider moving %q before it", prev.Name, next.Name),
			}
		case !prev.Required && next.Required:
			c.err = &SchemaError{
				Command: c.name,
				Param:   next.Name,
				Message: fmt.Sprintf("there cannot be a required param after a non-required param; "+
					"%q is not required but %q is, consider moving %q before %q",
					prev.Name, next.Name, next.Name, prev.Name),
			}
		}
	}
	c.params = append(slices.Clip(c.params), param)
	return c
}

// ParamAs adds a positional param under the given name
func (c CommandBuilder) ParamAs(name string, param ParamBuilder) CommandBuilder {
	return c.Param(param.Name(name))
}

// Command adds a child command
func (c CommandBuilder) Command(child CommandBuilder) CommandBuilder {
	c.commands = append(slices.Clip(c.commands), child)
	return c
}

// CommandAs adds a child command under the given name
func (c CommandBuilder) CommandAs(name string, child CommandBuilder) CommandBuilder {
	return c.Command(child.Name(name))
}

// Version records the version number and adds the flag that prints it.
// Without an explicit flag a boolean "--version/-v" flag is added; a given
// flag is always turned into a boolean flag.
func (c CommandBuilder) Version(number string, flag ...FlagBuilder) CommandBuilder {
	vf := NewFlag("version").
		Short("v").
		Description("Print the version number of the program.")
	if len(flag) > 0 {
		vf = flag[0]
	}
	vf = vf.Boolean()
	c.version = &Version{Number: number, FlagName: vf.conf.Name}
	return c.Flag(vf)
}

// Help adds a boolean "--help/-h" flag
func (c CommandBuilder) Help() CommandBuilder {
	return c.Flag(NewFlag("help").Short("h").Description("Show help for the command.").Boolean())
}

// Build validates the whole tree and returns the immutable root command
func (c CommandBuilder) Build() (*Command, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.name == "" {
		return nil, &SchemaError{
			Message: `the "name" attribute is required for a command, but no name was specified`,
		}
	}

	cmd := &Command{
		name:        c.name,
		aliases:     slices.Clone(c.aliases),
		description: c.description,
		flags:       make([]*Flag, 0, len(c.flags)),
		params:      make([]*Param, 0, len(c.params)),
		commands:    make([]*Command, 0, len(c.commands)),
	}
	if c.version != nil {
		v := *c.version
		cmd.version = &v
	}

	for _, fb := range c.flags {
		flag, err := fb.Build()
		if err != nil {
			return nil, withCommand(err, c.name)
		}
		cmd.flags = append(cmd.flags, flag)
	}
	for _, pb := range c.params {
		param, err := pb.Build()
		if err != nil {
			return nil, withCommand(err, c.name)
		}
		cmd.params = append(cmd.params, param)
	}
	for _, cb := range c.commands {
		child, err := cb.Build()
		if err != nil {
			return nil, withCommand(err, c.name)
		}
		cmd.commands = append(cmd.commands, child)
	}
	return cmd, nil
}

// MustBuild is like Build but panics on an invalid schema
func (c CommandBuilder) MustBuild() *Command {
	cmd, err := c.Build()
	if err != nil {
		panic(err)
	}
	return cmd
}

// Parse builds the schema and parses args against it
func (c CommandBuilder) Parse(args []string, opts ...ParseOption) (*Result, error) {
	cmd, err := c.Build()
	if err != nil {
		return nil, err
	}
	return Parse(cmd, args, opts...)
}

// normalizeValue converts a default value into the canonical Go representation
// of its type: float64, string or bool, or a slice of those for arrays.
func normalizeValue(typ ValueType, array bool, value any) (any, error) {
	if !array {
		return normalizeScalar(typ, value)
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list of %s values, got %T", typ, value)
	}

	switch typ {
	case TypeNumber:
		out := make([]float64, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := normalizeScalar(typ, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, v.(float64))
		}
		return out, nil
	case TypeBoolean:
		out := make([]bool, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := normalizeScalar(typ, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, v.(bool))
		}
		return out, nil
	default:
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			v, err := normalizeScalar(typ, rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, v.(string))
		}
		return out, nil
	}
}

//nolint:gocyclo,cyclop // One case per reflect kind keeps the conversion table readable.
func normalizeScalar(typ ValueType, value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch typ {
	case TypeNumber:
		var f float64
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		default:
			return nil, fmt.Errorf("expected a number, got %T", value)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("number %v is not finite", f)
		}
		return f, nil
	case TypeBoolean:
		if rv.Kind() != reflect.Bool {
			return nil, fmt.Errorf("expected a boolean, got %T", value)
		}
		return rv.Bool(), nil
	default:
		if rv.Kind() != reflect.String {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}
		return rv.String(), nil
	}
}
