// SPDX-License-Identifier: MPL-2.0

// Package solver resolves package requirements against an in-memory
// index using a conflict-driven algorithm modelled on PubGrub. A
// Constraint compiles to a union of half-open version intervals; the
// solver reasons over those sets with unit propagation and
// conflict-driven clause learning.
package solver

import (
	"fmt"
	"strings"

	"pkgr-cli/pkg/pkgdef"
)

type (
	// interval is the half-open range [lo, hi). A nil hi is unbounded
	// above. Versions are non-negative, so lo == 0.0.0 means unbounded
	// below.
	interval struct {
		lo pkgdef.Version
		hi *pkgdef.Version
	}

	// VersionSet is a normalised union of disjoint, ascending,
	// non-adjacent intervals. The zero value is the empty set.
	VersionSet struct {
		ivs []interval
	}
)

// succ returns the smallest version strictly greater than v.
func succ(v pkgdef.Version) pkgdef.Version {
	return pkgdef.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// Empty returns the set matching no version.
func Empty() VersionSet { return VersionSet{} }

// Any returns the set matching every version.
func Any() VersionSet {
	return VersionSet{ivs: []interval{{}}}
}

// Singleton returns the set matching exactly v.
func Singleton(v pkgdef.Version) VersionSet {
	s := succ(v)
	return VersionSet{ivs: []interval{{lo: v, hi: &s}}}
}

// Between returns [lo, hi), empty when hi <= lo.
func Between(lo, hi pkgdef.Version) VersionSet {
	if !lo.Less(hi) {
		return Empty()
	}
	h := hi
	return VersionSet{ivs: []interval{{lo: lo, hi: &h}}}
}

// AtLeast returns [lo, unbounded).
func AtLeast(lo pkgdef.Version) VersionSet {
	return VersionSet{ivs: []interval{{lo: lo}}}
}

// Below returns [0.0.0, hi).
func Below(hi pkgdef.Version) VersionSet {
	return Between(pkgdef.Version{}, hi)
}

// IsEmpty reports whether the set matches no version.
func (s VersionSet) IsEmpty() bool { return len(s.ivs) == 0 }

// IsAny reports whether the set matches every version.
func (s VersionSet) IsAny() bool {
	return len(s.ivs) == 1 && s.ivs[0].lo == (pkgdef.Version{}) && s.ivs[0].hi == nil
}

// Contains reports whether v is in the set.
func (s VersionSet) Contains(v pkgdef.Version) bool {
	for _, iv := range s.ivs {
		if v.Less(iv.lo) {
			return false
		}
		if iv.hi == nil || v.Less(*iv.hi) {
			return true
		}
	}
	return false
}

// Union returns the set of versions in s or o.
func (s VersionSet) Union(o VersionSet) VersionSet {
	merged := make([]interval, 0, len(s.ivs)+len(o.ivs))
	i, j := 0, 0
	for i < len(s.ivs) || j < len(o.ivs) {
		var next interval
		switch {
		case i == len(s.ivs):
			next, j = o.ivs[j], j+1
		case j == len(o.ivs):
			next, i = s.ivs[i], i+1
		case s.ivs[i].lo.Less(o.ivs[j].lo):
			next, i = s.ivs[i], i+1
		default:
			next, j = o.ivs[j], j+1
		}
		if n := len(merged); n > 0 && overlapsOrTouches(merged[n-1], next) {
			merged[n-1].hi = maxBound(merged[n-1].hi, next.hi)
		} else {
			merged = append(merged, next)
		}
	}
	return VersionSet{ivs: merged}
}

// Intersect returns the set of versions in both s and o.
func (s VersionSet) Intersect(o VersionSet) VersionSet {
	var out []interval
	i, j := 0, 0
	for i < len(s.ivs) && j < len(o.ivs) {
		a, b := s.ivs[i], o.ivs[j]
		lo := a.lo
		if lo.Less(b.lo) {
			lo = b.lo
		}
		hi := minBound(a.hi, b.hi)
		if hi == nil || lo.Less(*hi) {
			out = append(out, interval{lo: lo, hi: hi})
		}
		// Advance whichever interval ends first.
		if a.hi != nil && (b.hi == nil || a.hi.Less(*b.hi) || *a.hi == *b.hi) {
			i++
		} else {
			j++
		}
	}
	return VersionSet{ivs: out}
}

// Complement returns the set of versions not in s.
func (s VersionSet) Complement() VersionSet {
	if s.IsEmpty() {
		return Any()
	}
	var out []interval
	cursor := pkgdef.Version{}
	for _, iv := range s.ivs {
		if cursor.Less(iv.lo) {
			lo := iv.lo
			out = append(out, interval{lo: cursor, hi: &lo})
		}
		if iv.hi == nil {
			return VersionSet{ivs: out}
		}
		cursor = *iv.hi
	}
	return VersionSet{ivs: append(out, interval{lo: cursor})}
}

// Subsumes reports whether o is a subset of s.
func (s VersionSet) Subsumes(o VersionSet) bool {
	return o.Intersect(s.Complement()).IsEmpty()
}

// Equal reports set equality. Normalisation makes this structural.
func (s VersionSet) Equal(o VersionSet) bool {
	if len(s.ivs) != len(o.ivs) {
		return false
	}
	for i, iv := range s.ivs {
		ov := o.ivs[i]
		if iv.lo != ov.lo {
			return false
		}
		if (iv.hi == nil) != (ov.hi == nil) {
			return false
		}
		if iv.hi != nil && *iv.hi != *ov.hi {
			return false
		}
	}
	return true
}

// String renders the set in constraint syntax for error messages.
func (s VersionSet) String() string {
	if s.IsEmpty() {
		return "none"
	}
	if s.IsAny() {
		return "*"
	}
	parts := make([]string, 0, len(s.ivs))
	zero := pkgdef.Version{}
	for _, iv := range s.ivs {
		switch {
		case iv.hi != nil && *iv.hi == succ(iv.lo):
			parts = append(parts, "=="+iv.lo.String())
		case iv.hi == nil:
			parts = append(parts, ">="+iv.lo.String())
		case iv.lo == zero:
			parts = append(parts, "<"+iv.hi.String())
		default:
			parts = append(parts, fmt.Sprintf(">=%s,<%s", iv.lo, iv.hi))
		}
	}
	return strings.Join(parts, " | ")
}

func overlapsOrTouches(a, b interval) bool {
	if a.hi == nil {
		return true
	}
	return b.lo.Less(*a.hi) || b.lo == *a.hi
}

func minBound(a, b *pkgdef.Version) *pkgdef.Version {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Less(*b):
		return a
	default:
		return b
	}
}

func maxBound(a, b *pkgdef.Version) *pkgdef.Version {
	switch {
	case a == nil || b == nil:
		return nil
	case a.Less(*b):
		return b
	default:
		return a
	}
}

// CompileConstraint lowers a parsed constraint into the interval
// algebra: each conjunction intersects its atoms, alternatives union.
func CompileConstraint(c pkgdef.Constraint) VersionSet {
	if c.IsAny() {
		return Any()
	}
	acc := Empty()
	for _, conj := range c.Alternatives() {
		set := Any()
		for _, atom := range conj {
			set = set.Intersect(atomSet(atom))
		}
		acc = acc.Union(set)
	}
	return acc
}

// CompileDepSpec lowers a requirement to its base name and version set.
func CompileDepSpec(spec pkgdef.DepSpec) (string, VersionSet) {
	return spec.Base, CompileConstraint(spec.Constraint)
}

func atomSet(a pkgdef.Atom) VersionSet {
	v := a.Version
	switch a.Op {
	case pkgdef.OpBare:
		switch a.Parts {
		case 1:
			return Between(pkgdef.Version{Major: v.Major}, pkgdef.Version{Major: v.Major + 1})
		case 2:
			return Between(
				pkgdef.Version{Major: v.Major, Minor: v.Minor},
				pkgdef.Version{Major: v.Major, Minor: v.Minor + 1},
			)
		default:
			return Singleton(v)
		}
	case pkgdef.OpExact:
		return Singleton(v)
	case pkgdef.OpNot:
		return Singleton(v).Complement()
	case pkgdef.OpGTE:
		return AtLeast(v)
	case pkgdef.OpGT:
		return AtLeast(succ(v))
	case pkgdef.OpLTE:
		return Below(succ(v))
	case pkgdef.OpLT:
		return Below(v)
	case pkgdef.OpCaret:
		return Between(v, a.CaretUpper())
	case pkgdef.OpTilde:
		return Between(v, a.TildeUpper())
	default:
		return Empty()
	}
}
