// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"fmt"
	"strings"
)

type (
	// DepSpec is a parsed dependency specification: a package base name
	// plus a version constraint.
	//
	// Accepted textual forms:
	//
	//   - "name"                 any version
	//   - "name@>=3.5,<4.0"      constraint after '@'
	//   - "name-3.5.2"           exact version, dash form (base names may
	//     themselves contain dashes; the version starts at the first
	//     dash followed by a digit)
	DepSpec struct {
		// Base is the package family name (e.g., "redshift").
		Base string

		// Constraint restricts acceptable versions.
		Constraint Constraint

		// Original is the input string, kept for display.
		Original string
	}
)

// ParseDepSpec parses a dependency specification string.
func ParseDepSpec(spec string) (DepSpec, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return DepSpec{}, &InvalidConstraintError{Constraint: spec, Reason: "empty dependency spec"}
	}

	// name@constraint
	if at := strings.Index(s, "@"); at >= 0 {
		base := strings.TrimSpace(s[:at])
		if base == "" {
			return DepSpec{}, &InvalidConstraintError{Constraint: spec, Reason: "empty base name"}
		}
		c, err := ParseConstraint(s[at+1:])
		if err != nil {
			return DepSpec{}, err
		}
		return DepSpec{Base: base, Constraint: c, Original: s}, nil
	}

	// name-version
	if base, version, ok := SplitFullName(s); ok {
		c, err := ParseConstraint(version)
		if err != nil {
			return DepSpec{}, err
		}
		return DepSpec{Base: base, Constraint: c, Original: s}, nil
	}

	// bare name, any version
	return DepSpec{Base: s, Constraint: AnyConstraint(), Original: s}, nil
}

// SplitFullName splits a "base-X.Y.Z" identifier into base and version
// string. The version starts at the first dash followed by a digit, so
// dashed base names like "my-plugin-1.0.0" parse as ("my-plugin", "1.0.0").
// Returns ok=false when the identifier carries no version suffix.
func SplitFullName(id string) (base, version string, ok bool) {
	for i := 0; i+1 < len(id); i++ {
		if id[i] == '-' && id[i+1] >= '0' && id[i+1] <= '9' {
			if i == 0 {
				return "", "", false
			}
			return id[:i], id[i+1:], true
		}
	}
	return "", "", false
}

// Matches reports whether the given version satisfies this spec.
func (d DepSpec) Matches(v Version) bool {
	return d.Constraint.Matches(v)
}

// IsAny reports whether the spec accepts any version.
func (d DepSpec) IsAny() bool { return d.Constraint.IsAny() }

// String returns the requirement form ("name" or "name@constraint").
func (d DepSpec) String() string {
	if d.Original != "" {
		return d.Original
	}
	if d.IsAny() {
		return d.Base
	}
	return fmt.Sprintf("%s@%s", d.Base, d.Constraint)
}

// ParseDepSpecs parses a list of requirement strings, returning the
// first error encountered.
func ParseDepSpecs(specs []string) ([]DepSpec, error) {
	out := make([]DepSpec, 0, len(specs))
	for _, s := range specs {
		d, err := ParseDepSpec(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
