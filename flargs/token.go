package flargs

import "regexp"

// TokenKind labels a raw argument by its shape
type TokenKind int

const (
	// TokenOther is anything that is neither a flag nor word-like (e.g. "-", "1.5", "a").
	TokenOther TokenKind = iota
	// TokenLongFlag starts with two dashes followed by a word character.
	TokenLongFlag
	// TokenShortFlag starts with one dash followed by a word character.
	TokenShortFlag
	// TokenWord is a command name or bare value such as "build" or "my-file_2".
	TokenWord
)

// String returns the kind name used in debug output
func (k TokenKind) String() string {
	switch k {
	case TokenLongFlag:
		return "long-flag"
	case TokenShortFlag:
		return "short-flag"
	case TokenWord:
		return "word"
	case TokenOther:
		return "other"
	default:
		return "unknown"
	}
}

var (
	longFlagPattern  = regexp.MustCompile(`^--\w`)
	shortFlagPattern = regexp.MustCompile(`^-\w`)
	wordPattern      = regexp.MustCompile(`^[\w_]+[\w_-]*[\w_]$`)
)

// Classify labels token by shape. It has no side effects.
func Classify(token string) TokenKind {
	switch {
	case longFlagPattern.MatchString(token):
		return TokenLongFlag
	case shortFlagPattern.MatchString(token):
		return TokenShortFlag
	case wordPattern.MatchString(token):
		return TokenWord
	default:
		return TokenOther
	}
}

// IsFlag reports whether the kind is a long or short flag
func (k TokenKind) IsFlag() bool {
	return k == TokenLongFlag || k == TokenShortFlag
}
