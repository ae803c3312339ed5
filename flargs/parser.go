package flargs

import (
	"fmt"
	"os"
	"strings"

	"github.com/dzonerzy/flargs/internal/fuzzy"
	"github.com/dzonerzy/flargs/internal/pool"
)

// scanMode is the state of the scan state machine
type scanMode int

const (
	modeIdle scanMode = iota
	modeAwaitingValue
)

// scanState is the per-call state of a parse. Instances are recycled through
// scanStates; every value handed to a Result is freshly allocated per call.
type scanState struct {
	chain   scopeChain
	mode    scanMode
	pending *Flag
	// index of the element appended by the pending boolean array occurrence
	pendingIndex int
}

var scanStates = pool.NewPoolWithReset(
	func() *scanState {
		return &scanState{chain: scopeChain{scopes: make([]*scope, 0, 4)}}
	},
	func(st *scanState) {
		clear(st.chain.scopes)
		st.chain.scopes = st.chain.scopes[:0]
		st.mode = modeIdle
		st.pending = nil
		st.pendingIndex = -1
	},
)

// ParseOption configures a Parser
type ParseOption func(*Parser)

// WithStrict makes required flags and params without a value fail with
// ErrorTypeMissingRequired.
func WithStrict() ParseOption {
	return func(p *Parser) {
		p.strict = true
	}
}

// WithSuggestions toggles the closest-name hint attached to unknown flag errors
func WithSuggestions(enabled bool) ParseOption {
	return func(p *Parser) {
		p.suggest = enabled
	}
}

// Parser resolves argument vectors against a command schema. A Parser only
// holds options, so one value can serve any number of goroutines.
type Parser struct {
	strict  bool
	suggest bool
	matcher *fuzzy.Matcher
}

// NewParser creates a parser with the given options
func NewParser(opts ...ParseOption) *Parser {
	p := &Parser{
		suggest: true,
		matcher: fuzzy.NewMatcher(2),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Strict reports whether missing required values are errors
func (p *Parser) Strict() bool {
	return p.strict
}

// Parse resolves args against schema in a single left-to-right pass.
// It either returns a complete Result or exactly one error.
func Parse(schema *Command, args []string, opts ...ParseOption) (*Result, error) {
	return NewParser(opts...).Parse(schema, args)
}

// ParseOS parses the process arguments without the program name
func ParseOS(schema *Command, opts ...ParseOption) (*Result, error) {
	return Parse(schema, os.Args[1:], opts...)
}

// Parse resolves args against schema
func (p *Parser) Parse(schema *Command, args []string) (*Result, error) {
	if schema == nil {
		return nil, &SchemaError{Message: "nil command schema"}
	}

	st := scanStates.Get()
	defer scanStates.Put(st)
	st.chain.reset(schema)

	for _, token := range args {
		var err error
		if kind := Classify(token); kind.IsFlag() {
			err = p.scanFlag(st, token, kind)
		} else {
			err = p.scanValue(st, token)
		}
		if err != nil {
			return nil, err
		}
	}

	return assemble(st.chain.scopes, p.strict)
}

// scanFlag handles a long or short flag token, including the joined
// "--name=value" form.
func (p *Parser) scanFlag(st *scanState, token string, kind TokenKind) error {
	name := token[1:]
	if kind == TokenLongFlag {
		name = token[2:]
	}

	value, hasValue := "", false
	if i := strings.IndexByte(name, '='); i >= 0 {
		name, value, hasValue = name[:i], name[i+1:], true
	}

	flag := st.chain.resolveFlag(name)
	if flag == nil {
		return p.unknownFlag(st, token, name)
	}

	s := st.chain.innermost()
	st.pendingIndex = -1
	if flag.Type == TypeBoolean {
		if flag.Array {
			bools, _ := s.values[flag.Name].([]bool)
			s.values[flag.Name] = append(bools, true)
			st.pendingIndex = len(bools)
		} else {
			s.values[flag.Name] = true
		}
	}

	st.pending = flag
	st.mode = modeAwaitingValue

	if hasValue {
		return p.applyValue(st, value)
	}
	return nil
}

// scanValue handles a word or other token: a child command, the value of the
// pending flag, or a positional token, in that order.
func (p *Parser) scanValue(st *scanState, token string) error {
	if cmd := st.chain.resolveCommand(token); cmd != nil {
		st.chain.push(cmd)
		st.mode = modeIdle
		st.pending = nil
		st.pendingIndex = -1
		return nil
	}

	if st.mode == modeAwaitingValue && st.pending != nil {
		return p.applyValue(st, token)
	}

	s := st.chain.innermost()
	s.positional = append(s.positional, token)
	return nil
}

// applyValue coerces raw for the pending flag and stores it in the innermost scope
func (p *Parser) applyValue(st *scanState, raw string) error {
	flag := st.pending
	st.pending = nil
	st.mode = modeIdle

	value, err := Coerce(flag.Type, raw)
	if err != nil {
		return flagValueError(flag, raw, st.chain.path())
	}

	s := st.chain.innermost()
	switch {
	case !flag.Array:
		s.values[flag.Name] = value
	case flag.Type == TypeBoolean && st.pendingIndex >= 0:
		// the explicit literal replaces the true recorded for this occurrence
		if bools, ok := s.values[flag.Name].([]bool); ok && st.pendingIndex < len(bools) {
			bools[st.pendingIndex] = value.(bool)
		}
	default:
		s.values[flag.Name] = appendValue(s.values[flag.Name], value)
	}
	st.pendingIndex = -1
	return nil
}

func (p *Parser) unknownFlag(st *scanState, token, name string) error {
	path := st.chain.path()
	err := &ParseError{
		Type:    ErrorTypeUnknownFlag,
		Message: fmt.Sprintf("unknown flag '%s' for command '%s'", token, strings.Join(path, ".")),
		Token:   token,
		Flag:    name,
		Path:    path,
	}

	if p.suggest {
		names := pool.GetStringSlice()
		*names = st.chain.appendFlagNames(*names)
		err.Suggestion = p.matcher.FindBest(name, *names)
		pool.PutStringSlice(names)
	}
	return err
}

// appendValue appends a coerced scalar to the typed sequence held in existing.
// A value of a different shape is replaced by a fresh sequence.
func appendValue(existing, value any) any {
	switch v := value.(type) {
	case float64:
		nums, _ := existing.([]float64)
		return append(nums, v)
	case bool:
		bools, _ := existing.([]bool)
		return append(bools, v)
	case string:
		strs, _ := existing.([]string)
		return append(strs, v)
	}
	return existing
}
