// SPDX-License-Identifier: MPL-2.0

package solver

import (
	"pkgr-cli/pkg/pkgdef"
)

type (
	relation int

	// assignment is one entry of the partial solution: either a
	// decision (a concrete version picked for a package) or a
	// derivation (a term forced by an incompatibility).
	assignment struct {
		term  Term
		level int
		// cause is nil for decisions.
		cause *Incompatibility
		// version is set for decisions only.
		version *pkgdef.Version
	}

	// partialSolution is the ordered assignment trail plus per-package
	// accumulated knowledge.
	partialSolution struct {
		assignments []assignment
		decisions   map[string]pkgdef.Version
		derived     map[string]Term
		level       int
	}
)

const (
	relSatisfied relation = iota
	relAlmost
	relContradicted
	relInconclusive
)

func newPartialSolution() *partialSolution {
	return &partialSolution{
		decisions: make(map[string]pkgdef.Version),
		derived:   make(map[string]Term),
	}
}

// decide assigns a concrete version, opening a new decision level.
func (ps *partialSolution) decide(base string, v pkgdef.Version) {
	ps.level++
	ps.append(assignment{
		term:    positive(base, Singleton(v)),
		level:   ps.level,
		version: &v,
	})
	ps.decisions[base] = v
}

// derive records a term forced by cause at the current decision level.
func (ps *partialSolution) derive(term Term, cause *Incompatibility) {
	ps.append(assignment{term: term, level: ps.level, cause: cause})
}

func (ps *partialSolution) append(a assignment) {
	ps.assignments = append(ps.assignments, a)
	if acc, ok := ps.derived[a.term.Base]; ok {
		ps.derived[a.term.Base] = acc.Intersect(a.term)
	} else {
		ps.derived[a.term.Base] = a.term
	}
}

// termRelation compares a term against the accumulated knowledge.
func (ps *partialSolution) termRelation(t Term) relation {
	acc, ok := ps.derived[t.Base]
	if !ok {
		return relInconclusive
	}
	if acc.Satisfies(t) {
		return relSatisfied
	}
	if acc.Intersect(t).impossible() {
		return relContradicted
	}
	return relInconclusive
}

// relation classifies an incompatibility against the partial solution.
// For relAlmost the returned term is the single unsatisfied one.
func (ps *partialSolution) relation(inc *Incompatibility) (relation, Term) {
	var unsatisfied Term
	pending := 0
	for _, t := range inc.Terms {
		switch ps.termRelation(t) {
		case relContradicted:
			return relContradicted, t
		case relInconclusive:
			pending++
			unsatisfied = t
		}
	}
	switch pending {
	case 0:
		return relSatisfied, Term{}
	case 1:
		return relAlmost, unsatisfied
	default:
		return relInconclusive, Term{}
	}
}

// satisfier locates the latest assignment that completes the
// satisfaction of inc, the incompatibility term it satisfies, and the
// decision level of the previous satisfier (1 when none).
func (ps *partialSolution) satisfier(inc *Incompatibility) (int, Term, int) {
	satIdx := -1
	var satTerm Term
	for _, t := range inc.Terms {
		idx := ps.prefixSatisfier(t)
		if idx > satIdx {
			satIdx, satTerm = idx, t
		}
	}

	prevIdx := -1
	for _, t := range inc.Terms {
		if t.Base == satTerm.Base && t.Positive == satTerm.Positive && t.Set.Equal(satTerm.Set) {
			continue
		}
		if idx := ps.prefixSatisfier(t); idx > prevIdx {
			prevIdx = idx
		}
	}
	if idx := ps.prefixSatisfierWith(satTerm, satIdx); idx > prevIdx {
		prevIdx = idx
	}

	prevLevel := 1
	if prevIdx >= 0 {
		prevLevel = ps.assignments[prevIdx].level
	}
	return satIdx, satTerm, prevLevel
}

// prefixSatisfier returns the smallest index i such that the
// assignments up to and including i satisfy t.
func (ps *partialSolution) prefixSatisfier(t Term) int {
	var acc *Term
	for i, a := range ps.assignments {
		if a.term.Base != t.Base {
			continue
		}
		if acc == nil {
			v := a.term
			acc = &v
		} else {
			v := acc.Intersect(a.term)
			acc = &v
		}
		if acc.Satisfies(t) {
			return i
		}
	}
	return -1
}

// prefixSatisfierWith is prefixSatisfier for t with the assignment at
// satIdx presumed present; -1 when the satisfier alone suffices.
func (ps *partialSolution) prefixSatisfierWith(t Term, satIdx int) int {
	acc := ps.assignments[satIdx].term
	if acc.Satisfies(t) {
		return -1
	}
	for i := 0; i < satIdx; i++ {
		a := ps.assignments[i]
		if a.term.Base != t.Base {
			continue
		}
		acc = acc.Intersect(a.term)
		if acc.Satisfies(t) {
			return i
		}
	}
	return -1
}

// backtrack drops every assignment above level and rebuilds the
// accumulated state.
func (ps *partialSolution) backtrack(level int) {
	kept := ps.assignments[:0]
	for _, a := range ps.assignments {
		if a.level <= level {
			kept = append(kept, a)
		}
	}
	ps.assignments = kept
	ps.level = level

	ps.decisions = make(map[string]pkgdef.Version)
	ps.derived = make(map[string]Term)
	for _, a := range ps.assignments {
		if a.version != nil {
			ps.decisions[a.term.Base] = *a.version
		}
		if acc, ok := ps.derived[a.term.Base]; ok {
			ps.derived[a.term.Base] = acc.Intersect(a.term)
		} else {
			ps.derived[a.term.Base] = a.term
		}
	}
}

// undecided returns the bases with positive derived knowledge but no
// decision yet.
func (ps *partialSolution) undecided() []string {
	var out []string
	for base, acc := range ps.derived {
		if !acc.Positive {
			continue
		}
		if _, ok := ps.decisions[base]; ok {
			continue
		}
		out = append(out, base)
	}
	return out
}
