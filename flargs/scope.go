package flargs

// scope is the per-command accumulator of a single parse
type scope struct {
	cmd        *Command
	values     map[string]any // canonical flag name -> resolved value
	positional []string       // tokens scanned while cmd was innermost
}

func newScope(cmd *Command) *scope {
	return &scope{
		cmd:    cmd,
		values: make(map[string]any, len(cmd.flags)),
	}
}

// scopeChain is the stack of active commands. scopes[0] is the root and the
// last element is the innermost matched command; lookups walk it backwards so
// that inner declarations shadow outer ones.
type scopeChain struct {
	scopes []*scope
}

func (c *scopeChain) reset(root *Command) {
	clear(c.scopes)
	c.scopes = append(c.scopes[:0], newScope(root))
}

// innermost returns the most recently matched scope
func (c *scopeChain) innermost() *scope {
	return c.scopes[len(c.scopes)-1]
}

// push makes cmd the new innermost scope
func (c *scopeChain) push(cmd *Command) *scope {
	s := newScope(cmd)
	c.scopes = append(c.scopes, s)
	return s
}

// resolveCommand looks word up among the direct children of the innermost command only
func (c *scopeChain) resolveCommand(word string) *Command {
	return c.innermost().cmd.Subcommand(word)
}

// resolveFlag returns the first flag named or abbreviated by name, searching
// from the innermost command out to the root.
func (c *scopeChain) resolveFlag(name string) *Flag {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if flag := c.scopes[i].cmd.Flag(name); flag != nil {
			return flag
		}
	}
	return nil
}

// appendFlagNames appends every flag name reachable from the innermost scope to dst
func (c *scopeChain) appendFlagNames(dst []string) []string {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		for _, flag := range c.scopes[i].cmd.flags {
			dst = append(dst, flag.Name)
		}
	}
	return dst
}

// path returns the invoked command names root first, in a fresh slice that
// callers may keep; the chain itself is never reordered.
func (c *scopeChain) path() []string {
	out := make([]string, len(c.scopes))
	for i, s := range c.scopes {
		out[i] = s.cmd.name
	}
	return out
}
