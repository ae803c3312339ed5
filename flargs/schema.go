package flargs

// ValueType represents the semantic type of a flag or param value
type ValueType string

const (
	// TypeString is the default type; raw tokens are kept unchanged.
	TypeString ValueType = "string"
	// TypeNumber values are stored as float64.
	TypeNumber ValueType = "number"
	// TypeBoolean values are stored as bool and only accept "true" or "false".
	TypeBoolean ValueType = "boolean"
)

// Valid reports whether t is one of the supported value types
func (t ValueType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// Flag describes a named option attached to a command
type Flag struct {
	Name        string
	Shorthand   string
	Description string
	Required    bool
	Array       bool
	Type        ValueType
	Default     any // nil when the flag has no default
}

// RequiresValue returns true if the flag needs a value token after it
func (f *Flag) RequiresValue() bool {
	return f.Type != TypeBoolean
}

// HasDefault reports whether a default value was declared
func (f *Flag) HasDefault() bool {
	return f.Default != nil
}

// matches reports whether a stripped flag token names this flag
func (f *Flag) matches(name string) bool {
	return f.Name == name || (f.Shorthand != "" && f.Shorthand == name)
}

// Param describes a positional value slot of a command
type Param struct {
	Name        string
	Description string
	Required    bool
	Array       bool
	Type        ValueType
	Default     any
}

// HasDefault reports whether a default value was declared
func (p *Param) HasDefault() bool {
	return p.Default != nil
}

// Version holds the version metadata of a command.
// FlagName is the boolean flag that asks for the version to be printed.
type Version struct {
	Number   string
	FlagName string
}

// Command is an immutable node of the command schema. It is produced by
// CommandBuilder.Build and only read afterwards, so a single *Command can be
// shared between goroutines parsing different argument vectors.
type Command struct {
	name        string
	aliases     []string
	description string
	flags       []*Flag
	params      []*Param
	commands    []*Command
	version     *Version
}

// Name returns the command name (implements middleware.Command interface)
func (c *Command) Name() string {
	return c.name
}

// Description returns the command description (implements middleware.Command interface)
func (c *Command) Description() string {
	return c.description
}

// Aliases returns the alternate invocation names. The slice must not be modified.
func (c *Command) Aliases() []string {
	return c.aliases
}

// Flags returns the declared flags in declaration order. The slice must not be modified.
func (c *Command) Flags() []*Flag {
	return c.flags
}

// Params returns the declared positional params in order. The slice must not be modified.
func (c *Command) Params() []*Param {
	return c.params
}

// Commands returns the child commands in declaration order. The slice must not be modified.
func (c *Command) Commands() []*Command {
	return c.commands
}

// Version returns the version metadata, or nil when none was declared
func (c *Command) Version() *Version {
	return c.version
}

// Flag returns the flag declared directly on c with the given name or shorthand
func (c *Command) Flag(name string) *Flag {
	for _, f := range c.flags {
		if f.matches(name) {
			return f
		}
	}
	return nil
}

// Subcommand returns the direct child invoked by word, matching names and aliases.
// The first match in declaration order wins.
func (c *Command) Subcommand(word string) *Command {
	for _, child := range c.commands {
		if child.name == word {
			return child
		}
		for _, alias := range child.aliases {
			if alias == word {
				return child
			}
		}
	}
	return nil
}
