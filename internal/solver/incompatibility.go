// SPDX-License-Identifier: MPL-2.0

package solver

import (
	"fmt"
	"strings"
)

type (
	// causeKind records where an incompatibility came from, which drives
	// how the NoSolution trace renders it.
	causeKind int

	// Incompatibility is a set of terms that cannot all hold
	// simultaneously. Derived incompatibilities keep their parents so a
	// failure can be explained.
	Incompatibility struct {
		Terms []Term
		kind  causeKind
		// left and right are the parents of a derived incompatibility.
		left, right *Incompatibility
	}
)

const (
	// causeRequest: one of the caller's initial requirements.
	causeRequest causeKind = iota
	// causeDependency: a package version's declared requirement.
	causeDependency
	// causeNoVersions: no indexed version falls in the needed range.
	causeNoVersions
	// causeDerived: learned during conflict resolution.
	causeDerived
)

func requestIncompat(root Term, dep Term) *Incompatibility {
	return &Incompatibility{Terms: []Term{root, dep.Negate()}, kind: causeRequest}
}

func dependencyIncompat(depender Term, dep Term) *Incompatibility {
	return &Incompatibility{Terms: []Term{depender, dep.Negate()}, kind: causeDependency}
}

func noVersionsIncompat(t Term) *Incompatibility {
	return &Incompatibility{Terms: []Term{t}, kind: causeNoVersions}
}

// get returns the term mentioning base, if any.
func (inc *Incompatibility) get(base string) (Term, bool) {
	for _, t := range inc.Terms {
		if t.Base == base {
			return t, true
		}
	}
	return Term{}, false
}

// terminal reports whether conflict resolution has bottomed out: either
// the empty incompatibility (always violated) or a single positive term
// about the root.
func (inc *Incompatibility) terminal(root string) bool {
	if len(inc.Terms) == 0 {
		return true
	}
	return len(inc.Terms) == 1 && inc.Terms[0].Positive && inc.Terms[0].Base == root
}

// priorCause resolves inc against the cause of the satisfier for pkg.
// If the satisfier's term only partially satisfies inc's term, the
// unsatisfied remainder is carried along as a negated term.
func priorCause(inc, cause *Incompatibility, pkg string, satisfierTerm, incompatTerm Term) *Incompatibility {
	merged := make(map[string]Term)
	var order []string
	add := func(t Term) {
		if existing, ok := merged[t.Base]; ok {
			merged[t.Base] = existing.Intersect(t)
			return
		}
		merged[t.Base] = t
		order = append(order, t.Base)
	}
	for _, t := range inc.Terms {
		if t.Base != pkg {
			add(t)
		}
	}
	for _, t := range cause.Terms {
		if t.Base != pkg {
			add(t)
		}
	}
	if !satisfierTerm.Satisfies(incompatTerm) {
		add(satisfierTerm.Intersect(incompatTerm.Negate()).Negate())
	}

	terms := make([]Term, 0, len(order))
	for _, base := range order {
		terms = append(terms, merged[base])
	}
	return &Incompatibility{Terms: terms, kind: causeDerived, left: inc, right: cause}
}

// describe renders one incompatibility as a sentence of the trace.
func (inc *Incompatibility) describe(root string) string {
	switch inc.kind {
	case causeRequest:
		if dep, ok := negativeTerm(inc.Terms); ok {
			return fmt.Sprintf("the request requires %s", positiveForm(dep))
		}
	case causeDependency:
		depender, dok := positiveOf(inc.Terms)
		dep, nok := negativeTerm(inc.Terms)
		if dok && nok {
			return fmt.Sprintf("%s depends on %s", depender, positiveForm(dep))
		}
	case causeNoVersions:
		if len(inc.Terms) == 1 {
			return fmt.Sprintf("no version of %s", inc.Terms[0])
		}
	}

	if len(inc.Terms) == 0 {
		return "version solving failed"
	}
	if len(inc.Terms) == 1 {
		t := inc.Terms[0]
		if t.Positive && t.Base == root {
			return "the request cannot be satisfied"
		}
		return fmt.Sprintf("%s is impossible", t)
	}
	parts := make([]string, len(inc.Terms))
	for i, t := range inc.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " and ") + " are incompatible"
}

func positiveOf(terms []Term) (Term, bool) {
	for _, t := range terms {
		if t.Positive {
			return t, true
		}
	}
	return Term{}, false
}

func negativeTerm(terms []Term) (Term, bool) {
	for _, t := range terms {
		if !t.Positive {
			return t, true
		}
	}
	return Term{}, false
}

func positiveForm(t Term) string {
	return positive(t.Base, t.Set).String()
}
