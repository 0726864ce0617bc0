// Package interpolate renders translation templates against caller-supplied
// variables. Rendering is a pure function: the same template and variable set
// always produce the same output, and unresolved placeholders are a fixed
// error rather than silent passthrough.
package interpolate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrUnresolvedPlaceholder = errors.New("interpolate: unresolved placeholder")
var ErrUndeclaredPlaceholder = errors.New("interpolate: undeclared placeholder")

// placeholderPattern matches `{name}` tokens. Escapes and nested braces are
// not part of the template grammar.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// UnresolvedError reports a placeholder with no matching variable at render time.
type UnresolvedError struct {
	Name string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("interpolate: unresolved placeholder {%s}", e.Name)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolvedPlaceholder }

// UndeclaredError reports a template placeholder missing from the key's
// declared variable list.
type UndeclaredError struct {
	Name string
}

func (e *UndeclaredError) Error() string {
	return fmt.Sprintf("interpolate: placeholder {%s} is not a declared variable", e.Name)
}

func (e *UndeclaredError) Unwrap() error { return ErrUndeclaredPlaceholder }

// Placeholders extracts the unique placeholder names from a template in order
// of first appearance.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// Render substitutes every placeholder with its variable value. The first
// placeholder without a value aborts the render with an UnresolvedError.
func Render(template string, vars map[string]string) (string, error) {
	var missing *UnresolvedError
	out := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		if missing != nil {
			return token
		}
		name := token[1 : len(token)-1]
		value, ok := vars[name]
		if !ok {
			missing = &UnresolvedError{Name: name}
			return token
		}
		return value
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

// Validate checks that every placeholder in the template appears in the
// declared variable list. Declared variables without placeholders are fine;
// the reverse is not.
func Validate(template string, declared []string) error {
	if len(declared) == 0 {
		if names := Placeholders(template); len(names) > 0 {
			return &UndeclaredError{Name: names[0]}
		}
		return nil
	}
	allowed := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		allowed[strings.TrimSpace(name)] = struct{}{}
	}
	for _, name := range Placeholders(template) {
		if _, ok := allowed[name]; !ok {
			return &UndeclaredError{Name: name}
		}
	}
	return nil
}

// PluralForm picks the CLDR-style plural form for a count. Categories beyond
// zero/one/two fall through to `other`; the boolean reports whether any form
// matched (forms maps with no `other` entry can miss).
func PluralForm(forms map[string]string, count int) (string, bool) {
	if len(forms) == 0 {
		return "", false
	}
	switch {
	case count == 0:
		if form, ok := forms["zero"]; ok {
			return form, true
		}
	case count == 1:
		if form, ok := forms["one"]; ok {
			return form, true
		}
	case count == 2:
		if form, ok := forms["two"]; ok {
			return form, true
		}
	}
	form, ok := forms["other"]
	return form, ok
}
