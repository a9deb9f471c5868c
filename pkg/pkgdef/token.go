// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// DefaultMaxDepth bounds recursive token expansion. Ten levels of
// indirection is far beyond what real definition files use.
const DefaultMaxDepth = 10

var (
	// ErrVariableNotFound is the sentinel error wrapped by VariableNotFoundError.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrCircularReference is the sentinel error wrapped by CircularReferenceError.
	ErrCircularReference = errors.New("circular reference")

	// ErrDepthExceeded is the sentinel error wrapped by DepthExceededError.
	ErrDepthExceeded = errors.New("max expansion depth exceeded")
)

type (
	// VariableNotFoundError is returned by strict expansion when a
	// {TOKEN} resolves to no known variable.
	VariableNotFoundError struct {
		Name string
	}

	// CircularReferenceError is returned when expansion re-enters a
	// token already on the expansion stack (A -> B -> A).
	CircularReferenceError struct {
		Name string
	}

	// DepthExceededError is returned when expansion recurses past the
	// configured maximum depth.
	DepthExceededError struct {
		Name     string
		MaxDepth int
	}

	// expandOptions controls recursive token expansion.
	expandOptions struct {
		maxDepth int
		// osFallback consults the process environment for tokens not
		// defined by the lookup map.
		osFallback bool
		// strict fails with VariableNotFoundError on unknown tokens
		// instead of leaving the literal {TOKEN} in place.
		strict bool
		// passthrough names are exempt from strict failure; their
		// literal {TOKEN} survives for the consuming process to expand.
		passthrough map[string]struct{}
	}
)

// Error implements the error interface.
func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found during expansion", e.Name)
}

// Unwrap returns ErrVariableNotFound so callers can use errors.Is.
func (e *VariableNotFoundError) Unwrap() error { return ErrVariableNotFound }

// Error implements the error interface.
func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference detected for token %q", e.Name)
}

// Unwrap returns ErrCircularReference so callers can use errors.Is.
func (e *CircularReferenceError) Unwrap() error { return ErrCircularReference }

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("max depth %d exceeded expanding %q", e.MaxDepth, e.Name)
}

// Unwrap returns ErrDepthExceeded so callers can use errors.Is.
func (e *DepthExceededError) Unwrap() error { return ErrDepthExceeded }

// extractTokens returns all valid {TOKEN} identifiers in value.
// Identifiers match [A-Za-z_][A-Za-z0-9_]*; malformed or empty braces
// are ignored.
func extractTokens(value string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for i := 0; i < len(value); i++ {
		if value[i] != '{' {
			continue
		}
		end := strings.IndexByte(value[i+1:], '}')
		if end < 0 {
			break
		}
		name := value[i+1 : i+1+end]
		if isTokenIdent(name) {
			tokens[name] = struct{}{}
		}
		i += end + 1
	}
	return tokens
}

func isTokenIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// expandTokens performs a single substitution pass using lookup.
// Unknown tokens keep their literal form.
func expandTokens(value string, lookup func(name string) (string, bool)) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == '{' {
			if end := strings.IndexByte(value[i+1:], '}'); end >= 0 {
				name := value[i+1 : i+1+end]
				if isTokenIdent(name) {
					if rep, ok := lookup(name); ok {
						b.WriteString(rep)
						i += end + 1
						continue
					}
				}
			}
		}
		b.WriteByte(value[i])
	}
	return b.String()
}

// expandRecursive substitutes {TOKEN} references in value, following
// tokens whose replacement itself contains tokens. The lookup map is
// keyed by lowercased names. A visiting set detects cycles.
func expandRecursive(value string, lookup map[string]string, opts expandOptions) (string, error) {
	visiting := make(map[string]struct{})
	return expandStep(value, lookup, visiting, 0, opts)
}

func expandStep(value string, lookup map[string]string, visiting map[string]struct{}, depth int, opts expandOptions) (string, error) {
	if depth > opts.maxDepth {
		return "", &DepthExceededError{MaxDepth: opts.maxDepth}
	}
	if !strings.Contains(value, "{") {
		return value, nil
	}
	slog.Debug("expanding tokens", "value", value, "depth", depth)

	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == '{' {
			if end := strings.IndexByte(value[i+1:], '}'); end >= 0 {
				name := value[i+1 : i+1+end]
				if isTokenIdent(name) {
					rep, err := resolveToken(name, lookup, visiting, depth, opts)
					if err != nil {
						return "", err
					}
					if rep != nil {
						b.WriteString(*rep)
						i += end + 1
						continue
					}
				}
			}
		}
		b.WriteByte(value[i])
	}
	return b.String(), nil
}

// resolveToken returns the replacement for a token, nil when the
// literal should be kept, or an error.
func resolveToken(name string, lookup map[string]string, visiting map[string]struct{}, depth int, opts expandOptions) (*string, error) {
	lower := strings.ToLower(name)
	if _, ok := visiting[lower]; ok {
		return nil, &CircularReferenceError{Name: name}
	}

	if val, ok := lookup[lower]; ok {
		visiting[lower] = struct{}{}
		expanded, err := expandStep(val, lookup, visiting, depth+1, opts)
		delete(visiting, lower)
		if err != nil {
			return nil, err
		}
		return &expanded, nil
	}

	if _, ok := opts.passthrough[lower]; ok {
		// Pass-through names may still resolve from the process
		// environment; otherwise the literal survives.
		if val, ok := os.LookupEnv(name); ok {
			return &val, nil
		}
		return nil, nil
	}
	if opts.osFallback {
		if val, ok := os.LookupEnv(name); ok {
			return &val, nil
		}
	}
	if opts.strict {
		return nil, &VariableNotFoundError{Name: name}
	}
	return nil, nil
}
