package middleware

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ValidatorFunc checks a parsed Context before the action runs. Structural
// rules (required flags, param arity, value types) are enforced by the
// parser; validators cover what needs runtime state, such as the file system
// or relationships between flags.
type ValidatorFunc func(ctx Context) error

// NamedValidator associates a name with a ValidatorFunc for error reporting.
type NamedValidator struct {
	Name string
	Fn   ValidatorFunc
}

// Custom wraps an arbitrary ValidatorFunc with a name for reporting.
func Custom(name string, fn ValidatorFunc) NamedValidator {
	return NamedValidator{Name: name, Fn: fn}
}

// File returns a NamedValidator that ensures the given string flags name
// existing files. Array flags are checked element by element.
func File(flagNames ...string) NamedValidator {
	return NamedValidator{Name: "file_exists", Fn: FileExists(flagNames...)}
}

// Dir returns a NamedValidator that ensures the given string flags name
// existing directories.
func Dir(flagNames ...string) NamedValidator {
	return NamedValidator{Name: "directory_exists", Fn: DirectoryExists(flagNames...)}
}

// Validate composes validators into a single Middleware. They run in the
// given order and the first failure stops the action.
//
// Example:
//
//	app.Use(middleware.Validate(
//	    middleware.Custom("port_range", checkPort),
//	    middleware.File("config"),
//	))
func Validate(validators ...NamedValidator) Middleware {
	validators = slices.DeleteFunc(slices.Clone(validators), func(v NamedValidator) bool {
		return v.Name == "" || v.Fn == nil
	})

	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			for _, v := range validators {
				if err := runValidator(ctx, v.Name, v.Fn); err != nil {
					return err
				}
			}
			return next(ctx)
		}
	}
}

// Validator runs the validators registered with WithCustomValidators, sorted
// by name.
func Validator(options ...MiddlewareOption) Middleware {
	config := newConfig(options)
	names := make([]string, 0, len(config.CustomValidators))
	for name := range config.CustomValidators {
		names = append(names, name)
	}
	slices.Sort(names)

	validators := make([]NamedValidator, 0, len(names))
	for _, name := range names {
		validators = append(validators, Custom(name, config.CustomValidators[name]))
	}
	return Validate(validators...)
}

// WithCustomValidators adds named validators to the middleware config
func WithCustomValidators(validators map[string]ValidatorFunc) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		if config.CustomValidators == nil {
			config.CustomValidators = make(map[string]ValidatorFunc)
		}
		for name, validator := range validators {
			config.CustomValidators[name] = validator
		}
	}
}

func runValidator(ctx Context, name string, fn ValidatorFunc) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return &ValidationError{
		Field:   name,
		Message: "validation failed",
		Cause:   err,
	}
}

// ConditionalRequired makes flags required whenever condition returns nil.
func ConditionalRequired(condition ValidatorFunc, requiredFlags ...string) ValidatorFunc {
	return func(ctx Context) error {
		if err := condition(ctx); err != nil {
			return nil
		}

		var missing []string
		for _, flagName := range requiredFlags {
			if !flagPresent(ctx, flagName) {
				missing = append(missing, flagName)
			}
		}
		if len(missing) > 0 {
			return &ValidationError{
				Field:   strings.Join(missing, ", "),
				Message: "flags required when condition is met: " + strings.Join(missing, ", "),
			}
		}
		return nil
	}
}

// FileExists creates a validator that ensures file flags point to existing files
func FileExists(flagNames ...string) ValidatorFunc {
	return pathValidator("file", flagNames, validateFileExists)
}

// DirectoryExists creates a validator that ensures directory flags point to existing directories
func DirectoryExists(flagNames ...string) ValidatorFunc {
	return pathValidator("directory", flagNames, validateDirectoryExists)
}

func pathValidator(kind string, flagNames []string, check func(string) error) ValidatorFunc {
	return func(ctx Context) error {
		for _, flagName := range flagNames {
			for _, path := range flagPaths(ctx, flagName) {
				if err := check(path); err != nil {
					return &ValidationError{
						Field:   flagName,
						Value:   path,
						Message: fmt.Sprintf("%s validation failed for flag '%s'", kind, flagName),
						Cause:   err,
					}
				}
			}
		}
		return nil
	}
}

// flagPaths returns the non-empty paths held by a string or string array flag
func flagPaths(ctx Context, flagName string) []string {
	if path, ok := ctx.String(flagName); ok {
		if path == "" {
			return nil
		}
		return []string{path}
	}
	paths, _ := ctx.Strings(flagName)
	return slices.DeleteFunc(slices.Clone(paths), func(p string) bool { return p == "" })
}

// flagPresent reports whether a flag holds a non-zero value of any type
func flagPresent(ctx Context, flagName string) bool {
	if value, ok := ctx.String(flagName); ok && value != "" {
		return true
	}
	if value, ok := ctx.Number(flagName); ok && value != 0 {
		return true
	}
	if value, ok := ctx.Bool(flagName); ok && value {
		return true
	}
	if values, ok := ctx.Strings(flagName); ok && len(values) > 0 {
		return true
	}
	return false
}

func validateFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func validateDirectoryExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
