// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid version")
)

type (
	// Version is a semantic version triple with tuple-wise ordering.
	// Concrete package versions always carry all three components.
	Version struct {
		Major int
		Minor int
		Patch int
	}

	// InvalidVersionError is returned when a version string cannot be
	// parsed into a (major, minor, patch) triple.
	InvalidVersionError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// ParseVersion parses a full "X.Y.Z" triple. Concrete package versions
// require all three components; use parseVersionParts for constraint
// patterns where trailing components may be omitted.
func ParseVersion(s string) (Version, error) {
	v, parts, err := parseVersionParts(s)
	if err != nil {
		return Version{}, err
	}
	if parts != 3 {
		return Version{}, &InvalidVersionError{Value: s, Reason: "expected three components (major.minor.patch)"}
	}
	return v, nil
}

// parseVersionParts parses "X", "X.Y", or "X.Y.Z", padding omitted
// components with zero. Returns the number of components present.
func parseVersionParts(s string) (Version, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, 0, &InvalidVersionError{Value: s, Reason: "empty version"}
	}
	fields := strings.Split(s, ".")
	if len(fields) > 3 {
		return Version{}, 0, &InvalidVersionError{Value: s, Reason: "more than three components"}
	}
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 0 {
			return Version{}, 0, &InvalidVersionError{Value: s, Reason: fmt.Sprintf("non-numeric component %q", f)}
		}
		nums[i] = n
	}
	v := Version{Major: nums[0]}
	if len(nums) > 1 {
		v.Minor = nums[1]
	}
	if len(nums) > 2 {
		v.Patch = nums[2]
	}
	return v, len(nums), nil
}

// Compare returns -1, 0, or 1 comparing v to other tuple-wise.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return cmpInt(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return cmpInt(v.Minor, other.Minor)
	}
	return cmpInt(v.Patch, other.Patch)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether v orders before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// String returns the "X.Y.Z" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalText implements encoding.TextMarshaler; versions serialise as
// their "X.Y.Z" string form in JSON documents such as the scan cache.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
