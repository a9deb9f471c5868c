// SPDX-License-Identifier: MPL-2.0

package solver

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"pkgr-cli/pkg/pkgdef"
)

// rootBase is the synthetic package standing for the caller's request.
// The '$' keeps it out of the space of valid base names.
const rootBase = "$request"

var rootVersion = pkgdef.Version{}

type (
	// Solution is a consistent assignment of versions, in decision
	// order. The order is stable and meaningful: the env composer uses
	// it for transitive-dependency precedence.
	Solution struct {
		Packages []*pkgdef.Package
	}

	solver struct {
		index     Index
		partial   *partialSolution
		incompats []*Incompatibility
		byPkg     map[string][]*Incompatibility
		reqOrder  map[string]int
	}
)

// FullNames returns the solved set as "base-X.Y.Z" strings.
func (s *Solution) FullNames() []string {
	names := make([]string, len(s.Packages))
	for i, p := range s.Packages {
		names[i] = p.FullName()
	}
	return names
}

// SolveRequest parses requirement strings and solves them.
func SolveRequest(index Index, reqs []string) (*Solution, error) {
	specs, err := pkgdef.ParseDepSpecs(reqs)
	if err != nil {
		return nil, err
	}
	return Solve(index, specs)
}

// Solve finds a version assignment satisfying every requirement and
// the requirements of every selected package, transitively.
//
// Requirements naming an unknown package, or whose constraint matches
// no indexed version, fail fast with NoMatchingVersionError before the
// search starts. An unsatisfiable combination fails with
// NoSolutionError carrying the derivation trace.
func Solve(index Index, reqs []pkgdef.DepSpec) (*Solution, error) {
	for _, spec := range reqs {
		if err := checkRequest(index, spec); err != nil {
			return nil, err
		}
	}

	s := &solver{
		index:    index,
		partial:  newPartialSolution(),
		byPkg:    make(map[string][]*Incompatibility),
		reqOrder: make(map[string]int),
	}
	for i, spec := range reqs {
		base := strings.ToLower(spec.Base)
		if _, ok := s.reqOrder[base]; !ok {
			s.reqOrder[base] = i
		}
	}

	s.partial.decide(rootBase, rootVersion)
	rootTerm := positive(rootBase, Singleton(rootVersion))
	for _, spec := range reqs {
		base, set := CompileDepSpec(spec)
		s.add(requestIncompat(rootTerm, positive(strings.ToLower(base), set)))
	}

	next := rootBase
	for {
		if err := s.unitPropagate(next); err != nil {
			return nil, err
		}
		base, ok := s.choosePackage()
		if !ok {
			return s.solution(), nil
		}
		var err error
		next, err = s.makeDecision(base)
		if err != nil {
			return nil, err
		}
	}
}

// ResolveDeps solves pkg's requirements and records the result on the
// package itself, in solver decision order.
func ResolveDeps(index Index, pkg *pkgdef.Package) error {
	specs, err := pkg.ReqSpecs()
	if err != nil {
		return err
	}
	sol, err := Solve(index, specs)
	if err != nil {
		return err
	}
	deps := make([]pkgdef.Package, 0, len(sol.Packages))
	for _, p := range sol.Packages {
		if p.FullName() == pkg.FullName() {
			continue
		}
		deps = append(deps, *p)
	}
	pkg.SetResolved(deps)
	return nil
}

// checkRequest fails fast on requests the index can never satisfy.
func checkRequest(index Index, spec pkgdef.DepSpec) error {
	available := index.Versions(spec.Base)
	if len(available) == 0 {
		return &NoMatchingVersionError{Base: spec.Base, Constraint: spec.Constraint}
	}
	set := CompileConstraint(spec.Constraint)
	for _, v := range available {
		if set.Contains(v) {
			return nil
		}
	}
	return &NoMatchingVersionError{Base: spec.Base, Constraint: spec.Constraint, Available: available}
}

func (s *solver) add(inc *Incompatibility) {
	s.incompats = append(s.incompats, inc)
	for _, t := range inc.Terms {
		s.byPkg[t.Base] = append(s.byPkg[t.Base], inc)
	}
}

// unitPropagate narrows the partial solution from incompatibilities
// touching pkg, resolving conflicts as they surface.
func (s *solver) unitPropagate(pkg string) error {
	changed := []string{pkg}
	for len(changed) > 0 {
		current := changed[0]
		changed = changed[1:]

	incompats:
		for i := len(s.byPkg[current]) - 1; i >= 0; i-- {
			inc := s.byPkg[current][i]
			rel, term := s.partial.relation(inc)
			switch rel {
			case relSatisfied:
				learned, err := s.resolveConflict(inc)
				if err != nil {
					return err
				}
				rel2, term2 := s.partial.relation(learned)
				if rel2 != relAlmost {
					return fmt.Errorf("internal error: learned clause not assertive after backtrack")
				}
				s.partial.derive(term2.Negate(), learned)
				changed = append(changed[:0], term2.Base)
				break incompats
			case relAlmost:
				s.partial.derive(term.Negate(), inc)
				if !containsString(changed, term.Base) {
					changed = append(changed, term.Base)
				}
			}
		}
	}
	return nil
}

// resolveConflict performs conflict-driven clause learning: walk the
// implication graph backwards until the learned incompatibility is
// assertive at an earlier decision level, then backtrack to it.
func (s *solver) resolveConflict(inc *Incompatibility) (*Incompatibility, error) {
	for {
		if inc.terminal(rootBase) {
			return nil, newNoSolutionError(inc, rootBase)
		}
		satIdx, satTerm, prevLevel := s.partial.satisfier(inc)
		satisfier := s.partial.assignments[satIdx]
		if satisfier.cause == nil || prevLevel < satisfier.level {
			slog.Debug("solver backtracking",
				"from", s.partial.level, "to", prevLevel, "learned", inc.describe(rootBase))
			s.partial.backtrack(prevLevel)
			if inc.kind == causeDerived {
				s.add(inc)
			}
			return inc, nil
		}
		inc = priorCause(inc, satisfier.cause, satTerm.Base, satisfier.term, satTerm)
	}
}

// choosePackage picks the next package to decide: fewest candidate
// versions first, ties broken by request order, then name.
func (s *solver) choosePackage() (string, bool) {
	type candidate struct {
		base  string
		count int
		order int
	}
	var candidates []candidate
	for _, base := range s.partial.undecided() {
		acc := s.partial.derived[base]
		count := 0
		for _, v := range s.index.Versions(base) {
			if acc.Set.Contains(v) {
				count++
			}
		}
		order, ok := s.reqOrder[base]
		if !ok {
			order = len(s.reqOrder)
		}
		candidates = append(candidates, candidate{base: base, count: count, order: order})
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.count != b.count {
			return a.count < b.count
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.base < b.base
	})
	return candidates[0].base, true
}

// makeDecision selects the newest in-range version of base and adds
// its requirements as incompatibilities. The decision is withheld when
// one of those incompatibilities would be violated immediately; unit
// propagation then narrows the range instead.
func (s *solver) makeDecision(base string) (string, error) {
	acc := s.partial.derived[base]

	var chosen *pkgdef.Version
	for _, v := range s.index.Versions(base) {
		if acc.Set.Contains(v) {
			version := v
			chosen = &version
			break
		}
	}
	if chosen == nil {
		s.add(noVersionsIncompat(positive(base, acc.Set)))
		return base, nil
	}
	v := *chosen

	specs, err := s.index.Requirements(base, v)
	if err != nil {
		return "", fmt.Errorf("reading requirements of %s-%s: %w", base, v, err)
	}

	var fresh []*Incompatibility
	for _, spec := range specs {
		depBase, depSet := CompileDepSpec(spec)
		depBase = strings.ToLower(depBase)
		if depBase == base {
			// Self-requirement: only meaningful when it excludes the
			// candidate itself.
			if !depSet.Contains(v) {
				fresh = append(fresh, noVersionsIncompat(positive(base, Singleton(v))))
			}
			continue
		}
		fresh = append(fresh, dependencyIncompat(positive(base, Singleton(v)), positive(depBase, depSet)))
	}
	for _, inc := range fresh {
		s.add(inc)
	}

	decide := true
	for _, inc := range fresh {
		violated := true
		for _, t := range inc.Terms {
			if t.Base == base {
				continue
			}
			if s.partial.termRelation(t) != relSatisfied {
				violated = false
				break
			}
		}
		if violated {
			decide = false
		}
	}
	if decide {
		slog.Debug("solver decision", "package", base, "version", v)
		s.partial.decide(base, v)
	}
	return base, nil
}

// solution collects decided packages in decision order, dropping the
// synthetic root.
func (s *solver) solution() *Solution {
	sol := &Solution{}
	for _, a := range s.partial.assignments {
		if a.version == nil || a.term.Base == rootBase {
			continue
		}
		if pkg, ok := s.index.Package(a.term.Base, *a.version); ok {
			sol.Packages = append(sol.Packages, pkg)
		}
	}
	return sol
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
