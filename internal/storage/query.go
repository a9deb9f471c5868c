// SPDX-License-Identifier: MPL-2.0

package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"pkgr-cli/pkg/pkgdef"
)

// maxSuggestions bounds the "did you mean" list.
const maxSuggestions = 3

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("package not found")
)

// NotFoundError reports a lookup that matched nothing. When the base
// name itself is unknown, Suggestions holds near-miss names; when the
// base exists but no version satisfies, Available lists what does.
type NotFoundError struct {
	Query       string
	Available   []pkgdef.Version
	Suggestions []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Available) > 0 {
		versions := make([]string, len(e.Available))
		for i, v := range e.Available {
			versions[i] = v.String()
		}
		return fmt.Sprintf("no version matching %q (available: %s)", e.Query, strings.Join(versions, ", "))
	}
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("no package matching %q (did you mean: %s?)", e.Query, strings.Join(e.Suggestions, ", "))
	}
	return fmt.Sprintf("no package matching %q", e.Query)
}

// Unwrap returns ErrNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Len returns the number of indexed packages.
func (st *Storage) Len() int { return len(st.packages) }

// Get returns the package with the given full name ("base-X.Y.Z").
func (st *Storage) Get(fullName string) (*pkgdef.Package, bool) {
	pkg, ok := st.packages[strings.ToLower(fullName)]
	return pkg, ok
}

// Has reports whether a package with the given full name is indexed.
func (st *Storage) Has(fullName string) bool {
	_, ok := st.Get(fullName)
	return ok
}

// Latest returns the newest indexed version of base.
func (st *Storage) Latest(base string) (*pkgdef.Package, bool) {
	list := st.byBase[strings.ToLower(base)]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// Versions returns the indexed versions of base, newest first.
func (st *Storage) Versions(base string) []pkgdef.Version {
	list := st.byBase[strings.ToLower(base)]
	versions := make([]pkgdef.Version, len(list))
	for i, pkg := range list {
		versions[i] = pkg.Version
	}
	return versions
}

// Bases returns all indexed base names, sorted.
func (st *Storage) Bases() []string {
	bases := make([]string, 0, len(st.byBase))
	for base := range st.byBase {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	return bases
}

// Packages returns every indexed package, sorted by base then by
// descending version.
func (st *Storage) Packages() []*pkgdef.Package {
	var out []*pkgdef.Package
	for _, base := range st.Bases() {
		out = append(out, st.byBase[base]...)
	}
	return out
}

// Resolve returns the newest package satisfying the requirement. A
// miss returns NotFoundError carrying fuzzy name suggestions or the
// available versions.
func (st *Storage) Resolve(spec pkgdef.DepSpec) (*pkgdef.Package, error) {
	list := st.byBase[strings.ToLower(spec.Base)]
	if len(list) == 0 {
		return nil, &NotFoundError{
			Query:       spec.String(),
			Suggestions: st.Suggest(spec.Base),
		}
	}
	for _, pkg := range list {
		if spec.Matches(pkg.Version) {
			return pkg, nil
		}
	}
	return nil, &NotFoundError{Query: spec.String(), Available: st.Versions(spec.Base)}
}

// ResolveName parses a requirement string and resolves it.
func (st *Storage) ResolveName(name string) (*pkgdef.Package, error) {
	spec, err := pkgdef.ParseDepSpec(name)
	if err != nil {
		return nil, err
	}
	return st.Resolve(spec)
}

// Suggest returns up to three base names close to the given one.
func (st *Storage) Suggest(base string) []string {
	matches := fuzzy.Find(strings.ToLower(base), st.Bases())
	n := len(matches)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	out := make([]string, 0, n)
	for _, m := range matches[:n] {
		out = append(out, m.Str)
	}
	return out
}
