// SPDX-License-Identifier: MPL-2.0

package solver

import "fmt"

// Term is a statement about one package: a positive term requires the
// package to be selected with a version in Set; a negative term
// requires that it not be.
type Term struct {
	Base     string
	Set      VersionSet
	Positive bool
}

// positive and negative build terms for incompatibility construction.
func positive(base string, set VersionSet) Term {
	return Term{Base: base, Set: set, Positive: true}
}

func negative(base string, set VersionSet) Term {
	return Term{Base: base, Set: set, Positive: false}
}

// Negate flips the term.
func (t Term) Negate() Term {
	return Term{Base: t.Base, Set: t.Set, Positive: !t.Positive}
}

// Intersect combines two statements about the same package into one.
func (t Term) Intersect(o Term) Term {
	switch {
	case t.Positive && o.Positive:
		return positive(t.Base, t.Set.Intersect(o.Set))
	case t.Positive && !o.Positive:
		return positive(t.Base, t.Set.Intersect(o.Set.Complement()))
	case !t.Positive && o.Positive:
		return positive(t.Base, o.Set.Intersect(t.Set.Complement()))
	default:
		return negative(t.Base, t.Set.Union(o.Set))
	}
}

// Satisfies reports whether t implies o: every assignment consistent
// with t is consistent with o.
func (t Term) Satisfies(o Term) bool {
	switch {
	case t.Positive && o.Positive:
		return o.Set.Subsumes(t.Set)
	case t.Positive && !o.Positive:
		return t.Set.Intersect(o.Set).IsEmpty()
	case !t.Positive && o.Positive:
		return false
	default:
		return t.Set.Subsumes(o.Set)
	}
}

// impossible reports whether no assignment can satisfy the term.
func (t Term) impossible() bool {
	return t.Positive && t.Set.IsEmpty()
}

// String renders the term for derivation traces.
func (t Term) String() string {
	if t.Positive {
		if t.Set.IsAny() {
			return t.Base
		}
		return fmt.Sprintf("%s %s", t.Base, t.Set)
	}
	if t.Set.IsAny() {
		return "not " + t.Base
	}
	return fmt.Sprintf("not %s %s", t.Base, t.Set)
}
