// SPDX-License-Identifier: MPL-2.0

package solver

import (
	"errors"
	"fmt"
	"strings"

	"pkgr-cli/pkg/pkgdef"
)

var (
	// ErrNoSolution is the sentinel error wrapped by NoSolutionError.
	ErrNoSolution = errors.New("no solution")

	// ErrNoMatchingVersion is the sentinel error wrapped by
	// NoMatchingVersionError.
	ErrNoMatchingVersion = errors.New("no matching version")
)

type (
	// NoSolutionError reports an unsatisfiable requirement set together
	// with the derivation that proves it.
	NoSolutionError struct {
		root     *Incompatibility
		rootBase string
	}

	// NoMatchingVersionError reports a request naming an unknown
	// package, or a constraint no stored version satisfies.
	NoMatchingVersionError struct {
		Base       string
		Constraint pkgdef.Constraint
		// Available is empty when the package name itself is unknown.
		Available []pkgdef.Version
	}
)

func newNoSolutionError(root *Incompatibility, rootBase string) *NoSolutionError {
	return &NoSolutionError{root: root, rootBase: rootBase}
}

// Error renders the full derivation trace, one step per line.
func (e *NoSolutionError) Error() string {
	return "version solving failed:\n  " + strings.Join(e.Trace(), "\n  ")
}

// Unwrap returns ErrNoSolution so callers can use errors.Is.
func (e *NoSolutionError) Unwrap() error { return ErrNoSolution }

// Trace returns the derivation steps leading to the contradiction, in
// dependency-first order.
func (e *NoSolutionError) Trace() []string {
	var lines []string
	seen := make(map[*Incompatibility]struct{})
	e.explain(e.root, seen, &lines)
	return lines
}

func (e *NoSolutionError) explain(inc *Incompatibility, seen map[*Incompatibility]struct{}, lines *[]string) {
	if _, ok := seen[inc]; ok {
		return
	}
	seen[inc] = struct{}{}
	if inc.kind == causeDerived {
		e.explain(inc.left, seen, lines)
		e.explain(inc.right, seen, lines)
		*lines = append(*lines, "thus: "+e.describe(inc))
		return
	}
	*lines = append(*lines, e.describe(inc))
}

// describe renders an incompatibility, replacing the synthetic root
// package with "the request".
func (e *NoSolutionError) describe(inc *Incompatibility) string {
	if inc.kind != causeDerived {
		return inc.describe(e.rootBase)
	}

	var pos, neg []Term
	fromRoot := false
	for _, t := range inc.Terms {
		if t.Positive && t.Base == e.rootBase {
			fromRoot = true
			continue
		}
		if t.Positive {
			pos = append(pos, t)
		} else {
			neg = append(neg, t)
		}
	}

	subject := "the request"
	if len(pos) > 0 {
		parts := make([]string, len(pos))
		for i, t := range pos {
			parts[i] = t.String()
		}
		subject = strings.Join(parts, " and ")
	} else if !fromRoot && len(neg) == 0 {
		return "version solving failed"
	}

	if len(neg) > 0 {
		parts := make([]string, len(neg))
		for i, t := range neg {
			parts[i] = positiveForm(t)
		}
		return fmt.Sprintf("%s requires %s", subject, strings.Join(parts, " and "))
	}
	if len(pos) == 1 {
		return fmt.Sprintf("%s cannot be selected", pos[0])
	}
	if len(pos) == 0 {
		return "the request cannot be satisfied"
	}
	return subject + " are incompatible"
}

// Error implements the error interface.
func (e *NoMatchingVersionError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no package named %q in the repository", e.Base)
	}
	versions := make([]string, len(e.Available))
	for i, v := range e.Available {
		versions[i] = v.String()
	}
	return fmt.Sprintf("no version of %s matches %s (available: %s)",
		e.Base, e.Constraint, strings.Join(versions, ", "))
}

// Unwrap returns ErrNoMatchingVersion so callers can use errors.Is.
func (e *NoMatchingVersionError) Unwrap() error { return ErrNoMatchingVersion }
