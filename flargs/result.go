package flargs

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Node is one level of the invoked command path
type Node struct {
	Name    string
	Command *Command
	Flags   map[string]any // flags resolved at this level, defaults included
	Params  map[string]any // params bound from this level's positional tokens
	Args    []string       // positional tokens no param consumed
	Child   *Node          // next invoked command, nil for the innermost
}

// Result is the outcome of a successful parse
type Result struct {
	Program *Node          // root of the invoked path
	Flat    map[string]any // flag values merged root to innermost, innermost wins
	Params  map[string]any // bound params merged root to innermost, innermost wins
	Args    []string       // unbound positional tokens in scan order
	Path    []string       // invoked command names, root first
	Command *Command       // innermost invoked command
}

// assemble turns the visited scopes, root first, into a Result
func assemble(scopes []*scope, strict bool) (*Result, error) {
	path := make([]string, len(scopes))
	for i, s := range scopes {
		path[i] = s.cmd.name
	}

	res := &Result{
		Flat:    make(map[string]any),
		Params:  make(map[string]any),
		Path:    path,
		Command: scopes[len(scopes)-1].cmd,
	}

	// every level is filled first so an inner default can satisfy an outer
	// required flag of the same name
	for _, s := range scopes {
		fillDefaults(s)
	}

	var parent *Node
	for i, s := range scopes {
		if strict {
			if err := checkRequiredFlags(scopes, i, path); err != nil {
				return nil, err
			}
		}

		node := &Node{
			Name:    s.cmd.name,
			Command: s.cmd,
			Flags:   s.values,
		}
		if err := bindParams(node, s, strict, path); err != nil {
			return nil, err
		}

		if parent == nil {
			res.Program = node
		} else {
			parent.Child = node
		}
		parent = node

		maps.Copy(res.Flat, node.Flags)
		maps.Copy(res.Params, node.Params)
		res.Args = append(res.Args, node.Args...)
	}
	return res, nil
}

// fillDefaults inserts the defaults of a command's own flags that were not scanned
func fillDefaults(s *scope) {
	for _, flag := range s.cmd.flags {
		if !flag.HasDefault() {
			continue
		}
		if _, ok := s.values[flag.Name]; !ok {
			s.values[flag.Name] = cloneValue(flag.Default)
		}
	}
}

// checkRequiredFlags fails when a required flag of scopes[level] has no value
// at that level or in any deeper scope.
func checkRequiredFlags(scopes []*scope, level int, path []string) error {
	for _, flag := range scopes[level].cmd.flags {
		if !flag.Required {
			continue
		}
		found := false
		for _, s := range scopes[level:] {
			if _, ok := s.values[flag.Name]; ok {
				found = true
				break
			}
		}
		if !found {
			return &ParseError{
				Type:    ErrorTypeMissingRequired,
				Message: fmt.Sprintf("missing required flag '--%s' for command '%s'", flag.Name, strings.Join(path[:level+1], ".")),
				Flag:    flag.Name,
				Path:    path,
			}
		}
	}
	return nil
}

// bindParams assigns a scope's positional tokens to its params in declared
// order. An array param takes every remaining token.
func bindParams(node *Node, s *scope, strict bool, path []string) error {
	node.Params = make(map[string]any, len(s.cmd.params))
	tokens := s.positional
	next := 0

	for _, param := range s.cmd.params {
		if param.Array {
			if next < len(tokens) {
				var values any
				for _, raw := range tokens[next:] {
					value, err := Coerce(param.Type, raw)
					if err != nil {
						return paramValueError(param, raw, path)
					}
					values = appendValue(values, value)
				}
				node.Params[param.Name] = values
				next = len(tokens)
				continue
			}
		} else if next < len(tokens) {
			raw := tokens[next]
			value, err := Coerce(param.Type, raw)
			if err != nil {
				return paramValueError(param, raw, path)
			}
			node.Params[param.Name] = value
			next++
			continue
		}

		switch {
		case param.HasDefault():
			node.Params[param.Name] = cloneValue(param.Default)
		case param.Required && strict:
			return &ParseError{
				Type:    ErrorTypeMissingRequired,
				Message: fmt.Sprintf("missing required param '%s' for command '%s'", param.Name, strings.Join(path, ".")),
				Param:   param.Name,
				Path:    path,
			}
		}
	}

	if next < len(tokens) {
		node.Args = slices.Clone(tokens[next:])
	}
	return nil
}

// cloneValue copies sequence values so results never alias schema defaults
func cloneValue(v any) any {
	switch s := v.(type) {
	case []float64:
		return slices.Clone(s)
	case []string:
		return slices.Clone(s)
	case []bool:
		return slices.Clone(s)
	}
	return v
}

// Get returns the merged value of a flag
func (r *Result) Get(name string) (any, bool) {
	v, ok := r.Flat[name]
	return v, ok
}

// Has reports whether a flag has a value, scanned or defaulted
func (r *Result) Has(name string) bool {
	_, ok := r.Flat[name]
	return ok
}

// String returns a string flag value
func (r *Result) String(name string) (string, bool) {
	v, ok := r.Flat[name].(string)
	return v, ok
}

// Number returns a number flag value
func (r *Result) Number(name string) (float64, bool) {
	v, ok := r.Flat[name].(float64)
	return v, ok
}

// Bool returns a boolean flag value
func (r *Result) Bool(name string) (bool, bool) {
	v, ok := r.Flat[name].(bool)
	return v, ok
}

// Strings returns a string array flag value
func (r *Result) Strings(name string) ([]string, bool) {
	v, ok := r.Flat[name].([]string)
	return v, ok
}

// Numbers returns a number array flag value
func (r *Result) Numbers(name string) ([]float64, bool) {
	v, ok := r.Flat[name].([]float64)
	return v, ok
}

// Bools returns a boolean array flag value
func (r *Result) Bools(name string) ([]bool, bool) {
	v, ok := r.Flat[name].([]bool)
	return v, ok
}

// Param returns the merged value of a positional param
func (r *Result) Param(name string) (any, bool) {
	v, ok := r.Params[name]
	return v, ok
}

// Node returns the node of the command at depth (0 is the root), or nil
func (r *Result) Node(depth int) *Node {
	n := r.Program
	for i := 0; i < depth && n != nil; i++ {
		n = n.Child
	}
	return n
}

// CommandPath returns the dotted invoked path, e.g. "root.build"
func (r *Result) CommandPath() string {
	return strings.Join(r.Path, ".")
}

// VersionRequested reports whether the version flag of an invoked command
// was set, returning the innermost such command's version number.
func (r *Result) VersionRequested() (string, bool) {
	var number string
	var found bool
	for n := r.Program; n != nil; n = n.Child {
		v := n.Command.Version()
		if v == nil || v.FlagName == "" {
			continue
		}
		if requested, _ := r.Flat[v.FlagName].(bool); requested {
			number, found = v.Number, true
		}
	}
	return number, found
}

// Map renders the result in its portable nested shape:
//
//	{"program": {"<root>": {"_": {...}, "<child>": {...}}}, "_": {...}}
func (r *Result) Map() map[string]any {
	return map[string]any{
		"program": map[string]any{r.Program.Name: r.Program.toMap()},
		"_":       maps.Clone(r.Flat),
	}
}

func (n *Node) toMap() map[string]any {
	m := map[string]any{"_": maps.Clone(n.Flags)}
	if n.Child != nil {
		m[n.Child.Name] = n.Child.toMap()
	}
	return m
}
