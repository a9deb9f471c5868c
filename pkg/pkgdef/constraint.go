// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConstraint is the sentinel error wrapped by InvalidConstraintError.
	ErrInvalidConstraint = errors.New("invalid constraint")
)

type (
	// AtomOp identifies the comparison operator of a single constraint atom.
	AtomOp string

	// Atom is a single constraint clause over one version pattern.
	//
	// For OpBare, Parts records how many components the author wrote:
	// "2024" is a prefix admitting every 2024.*.*, "2024.1" admits
	// 2024.1.*, and a full "2024.1.0" is exact. Comparator atoms pad
	// omitted components with zero, so ">=2024" means ">=2024.0.0" and
	// "<2026" excludes all 2026.*.*.
	Atom struct {
		Op      AtomOp
		Version Version
		// Parts is the number of components the author spelled out (1-3).
		Parts int
	}

	// Constraint is a parsed version constraint: a union ('|') of
	// conjunctions (','). The empty constraint and "*" admit any version.
	Constraint struct {
		// alts is the union of alternatives; each alternative is a
		// conjunction of atoms that must all hold.
		alts [][]Atom
		raw  string
	}

	// InvalidConstraintError is returned when a constraint expression
	// cannot be parsed.
	InvalidConstraintError struct {
		Constraint string
		Reason     string
	}
)

// Constraint atom operators.
const (
	OpBare  AtomOp = ""   // bare pattern: exact or prefix depending on Parts
	OpExact AtomOp = "==" // exact triple (omitted components zero-padded)
	OpNot   AtomOp = "!=" // excludes exactly one triple
	OpGTE   AtomOp = ">="
	OpGT    AtomOp = ">"
	OpLTE   AtomOp = "<="
	OpLT    AtomOp = "<"
	OpCaret AtomOp = "^" // [V, next major) with 0.x special cases
	OpTilde AtomOp = "~" // [V, major.(minor+1).0)
)

// Error implements the error interface.
func (e *InvalidConstraintError) Error() string {
	return fmt.Sprintf("invalid constraint %q: %s", e.Constraint, e.Reason)
}

// Unwrap returns ErrInvalidConstraint so callers can use errors.Is.
func (e *InvalidConstraintError) Unwrap() error { return ErrInvalidConstraint }

// AnyConstraint returns the constraint admitting every version.
func AnyConstraint() Constraint {
	return Constraint{raw: "*"}
}

// ParseConstraint parses a constraint expression such as "2024",
// ">=3.5,<4.0", "!=1.0.5", "^1.2.3", or "1.0|2.0".
func ParseConstraint(s string) (Constraint, error) {
	raw := strings.TrimSpace(s)
	if raw == "" || raw == "*" {
		return AnyConstraint(), nil
	}

	var alts [][]Atom
	for _, alt := range strings.Split(raw, "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		var conj []Atom
		for _, part := range strings.Split(alt, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				return Constraint{}, &InvalidConstraintError{Constraint: s, Reason: "empty atom"}
			}
			atom, err := parseAtom(part)
			if err != nil {
				return Constraint{}, err
			}
			conj = append(conj, atom)
		}
		if len(conj) > 0 {
			alts = append(alts, conj)
		}
	}
	if len(alts) == 0 {
		return Constraint{}, &InvalidConstraintError{Constraint: s, Reason: "empty constraint"}
	}
	return Constraint{alts: alts, raw: raw}, nil
}

// atomOps is checked in order; two-character operators must precede
// their one-character prefixes.
var atomOps = []AtomOp{OpExact, OpNot, OpGTE, OpLTE, OpGT, OpLT, OpCaret, OpTilde}

func parseAtom(s string) (Atom, error) {
	op := OpBare
	rest := s
	for _, candidate := range atomOps {
		if strings.HasPrefix(s, string(candidate)) {
			op = candidate
			rest = strings.TrimSpace(s[len(candidate):])
			break
		}
	}
	if rest == "" {
		return Atom{}, &InvalidConstraintError{Constraint: s, Reason: "operator without operand"}
	}
	v, parts, err := parseVersionParts(rest)
	if err != nil {
		return Atom{}, &InvalidConstraintError{Constraint: s, Reason: err.Error()}
	}
	return Atom{Op: op, Version: v, Parts: parts}, nil
}

// IsAny reports whether the constraint admits every version.
func (c Constraint) IsAny() bool { return len(c.alts) == 0 }

// String returns the constraint as written (or "*" for any).
func (c Constraint) String() string {
	if c.raw == "" {
		return "*"
	}
	return c.raw
}

// Alternatives exposes the parsed union-of-conjunctions structure for
// the solver's range compiler.
func (c Constraint) Alternatives() [][]Atom { return c.alts }

// ExactVersion returns the single version this constraint pins, if it
// is an exact constraint ("1.2.3" or "==1.2.3").
func (c Constraint) ExactVersion() (Version, bool) {
	if len(c.alts) != 1 || len(c.alts[0]) != 1 {
		return Version{}, false
	}
	atom := c.alts[0][0]
	switch atom.Op {
	case OpExact:
		return atom.Version, true
	case OpBare:
		if atom.Parts == 3 {
			return atom.Version, true
		}
	}
	return Version{}, false
}

// Matches reports whether v satisfies the constraint.
func (c Constraint) Matches(v Version) bool {
	if c.IsAny() {
		return true
	}
	for _, conj := range c.alts {
		ok := true
		for _, atom := range conj {
			if !atom.matches(v) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (a Atom) matches(v Version) bool {
	switch a.Op {
	case OpBare:
		// Prefix match on the components the author wrote.
		if v.Major != a.Version.Major {
			return false
		}
		if a.Parts >= 2 && v.Minor != a.Version.Minor {
			return false
		}
		if a.Parts >= 3 && v.Patch != a.Version.Patch {
			return false
		}
		return true
	case OpExact:
		return v.Compare(a.Version) == 0
	case OpNot:
		return v.Compare(a.Version) != 0
	case OpGTE:
		return v.Compare(a.Version) >= 0
	case OpGT:
		return v.Compare(a.Version) > 0
	case OpLTE:
		return v.Compare(a.Version) <= 0
	case OpLT:
		return v.Compare(a.Version) < 0
	case OpCaret:
		return v.Compare(a.Version) >= 0 && v.Less(a.CaretUpper())
	case OpTilde:
		return v.Compare(a.Version) >= 0 && v.Less(a.TildeUpper())
	default:
		return false
	}
}

// CaretUpper is the exclusive upper bound of a caret atom:
// ^1.2.3 excludes 2.0.0, ^0.2.3 excludes 0.3.0, ^0.0.3 excludes 0.0.4.
func (a Atom) CaretUpper() Version {
	v := a.Version
	switch {
	case v.Major > 0:
		return Version{Major: v.Major + 1}
	case v.Minor > 0:
		return Version{Minor: v.Minor + 1}
	default:
		return Version{Patch: v.Patch + 1}
	}
}

// TildeUpper is the exclusive upper bound of a tilde atom:
// ~1.2.3 excludes 1.3.0.
func (a Atom) TildeUpper() Version {
	return Version{Major: a.Version.Major, Minor: a.Version.Minor + 1}
}
