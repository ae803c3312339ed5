package flargs

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errBooleanLiteral = errors.New("expected 'true' or 'false'")
	errNumberLiteral  = errors.New("not a finite number")
)

// Coerce converts a raw token into the Go value of typ: float64 for numbers,
// bool for booleans, and the unchanged string otherwise. Array handling is
// left to the caller.
func Coerce(typ ValueType, raw string) (any, error) {
	switch typ {
	case TypeBoolean:
		switch raw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, errBooleanLiteral
	case TypeNumber:
		return parseNumber(raw)
	default:
		return raw, nil
	}
}

// parseNumber accepts decimal and exponent notation and hexadecimal,
// octal or binary integer literals with a base prefix. NaN and infinities
// are rejected.
func parseNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, errNumberLiteral
	}
	if hasBasePrefix(raw) {
		if n, err := strconv.ParseInt(raw, 0, 64); err == nil {
			return float64(n), nil
		}
		// unsigned literals past the int64 range, e.g. 0xFFFFFFFFFFFFFFFF
		if u, err := strconv.ParseUint(strings.TrimPrefix(raw, "+"), 0, 64); err == nil {
			return float64(u), nil
		}
		return 0, errNumberLiteral
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNumberLiteral
	}
	return f, nil
}

func hasBasePrefix(raw string) bool {
	s := strings.TrimLeft(raw, "+-")
	if len(s) < 3 || s[0] != '0' {
		return false
	}
	switch s[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	}
	return false
}

// flagValueError reports a raw token rejected by Coerce for a flag
func flagValueError(flag *Flag, raw string, path []string) *ParseError {
	return literalError(flag.Type, "flag '--"+flag.Name+"'", raw, path, flag.Name, "")
}

// paramValueError reports a raw token rejected by Coerce for a param
func paramValueError(param *Param, raw string, path []string) *ParseError {
	return literalError(param.Type, "param '"+param.Name+"'", raw, path, "", param.Name)
}

func literalError(typ ValueType, subject, raw string, path []string, flag, param string) *ParseError {
	errType := ErrorTypeInvalidNumberLiteral
	kind := "number"
	if typ == TypeBoolean {
		errType = ErrorTypeInvalidBooleanLiteral
		kind = "boolean"
	}
	return &ParseError{
		Type:    errType,
		Message: fmt.Sprintf("invalid %s value for %s: %q", kind, subject, raw),
		Token:   raw,
		Flag:    flag,
		Param:   param,
		Path:    path,
	}
}
