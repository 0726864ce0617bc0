package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	slug "github.com/goliatone/go-slug"
)

var (
	ErrKeyNameInvalid   = errors.New("key name invalid")
	ErrLocaleInvalid    = errors.New("locale code invalid")
	ErrValueTooLarge    = errors.New("value exceeds size limit")
	ErrTooManyVariables = errors.New("too many declared variables")
	ErrVariableInvalid  = errors.New("variable name invalid")
)

// MaxKeyNameLength bounds the normalized dotted key name.
const MaxKeyNameLength = 255

var (
	localePattern   = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)
	variablePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// NormalizeKeyName canonicalizes a dotted translation key: segments are
// trimmed and slug-normalized individually, then rejoined. Empty segments,
// empty input, or input that slug normalization cannot settle fail with
// ErrKeyNameInvalid.
func NormalizeKeyName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrKeyNameInvalid)
	}
	segments := strings.Split(trimmed, ".")
	normalized := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return "", fmt.Errorf("%w: empty segment in %q", ErrKeyNameInvalid, name)
		}
		cleaned, err := slug.Normalize(segment)
		if err != nil || cleaned == "" {
			return "", fmt.Errorf("%w: segment %q", ErrKeyNameInvalid, segment)
		}
		normalized = append(normalized, cleaned)
	}
	result := strings.Join(normalized, ".")
	if len(result) > MaxKeyNameLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrKeyNameInvalid, MaxKeyNameLength)
	}
	return result, nil
}

// NormalizeLocale canonicalizes a BCP-47-lite locale code (`ll` or `ll-RR`):
// language lowered, region uppered. Shapes outside that grammar fail with
// ErrLocaleInvalid.
func NormalizeLocale(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrLocaleInvalid)
	}
	parts := strings.SplitN(strings.ReplaceAll(trimmed, "_", "-"), "-", 2)
	normalized := strings.ToLower(parts[0])
	if len(parts) == 2 {
		normalized += "-" + strings.ToUpper(parts[1])
	}
	if !localePattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrLocaleInvalid, code)
	}
	return normalized, nil
}

// ValueSize enforces the configured byte ceiling on translation content.
func ValueSize(value string, maxBytes int) error {
	if maxBytes > 0 && len(value) > maxBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrValueTooLarge, len(value), maxBytes)
	}
	return nil
}

// NormalizeVariables trims, validates, and deduplicates a declared-variable
// list, preserving first-seen order. Variables must be valid placeholder
// identifiers; the list is capped at maxVariables when positive.
func NormalizeVariables(variables []string, maxVariables int) ([]string, error) {
	if len(variables) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(variables))
	out := make([]string, 0, len(variables))
	for _, variable := range variables {
		variable = strings.TrimSpace(variable)
		if variable == "" {
			continue
		}
		if !variablePattern.MatchString(variable) {
			return nil, fmt.Errorf("%w: %q", ErrVariableInvalid, variable)
		}
		if _, dup := seen[variable]; dup {
			continue
		}
		seen[variable] = struct{}{}
		out = append(out, variable)
	}
	if maxVariables > 0 && len(out) > maxVariables {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyVariables, len(out), maxVariables)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
