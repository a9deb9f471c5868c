// SPDX-License-Identifier: MPL-2.0

package solver

import (
	"sort"
	"strings"

	"pkgr-cli/pkg/pkgdef"
)

type (
	// Index is the solver's view of available packages. Versions must
	// come back in descending order; the solver prefers the newest
	// version in range.
	Index interface {
		Versions(base string) []pkgdef.Version
		Requirements(base string, v pkgdef.Version) ([]pkgdef.DepSpec, error)
		Package(base string, v pkgdef.Version) (*pkgdef.Package, bool)
	}

	// PackageIndex is the in-memory Index the CLI builds from a scan.
	// Base names are matched case-insensitively. Safe for concurrent
	// reads once built.
	PackageIndex struct {
		byBase map[string][]*pkgdef.Package
	}
)

// NewIndex builds an index over the given packages.
func NewIndex(pkgs ...*pkgdef.Package) *PackageIndex {
	x := &PackageIndex{byBase: make(map[string][]*pkgdef.Package)}
	for _, p := range pkgs {
		x.Add(p)
	}
	return x
}

// Add inserts a package, keeping each base's list version-descending.
// A duplicate full name replaces the earlier record.
func (x *PackageIndex) Add(pkg *pkgdef.Package) {
	key := strings.ToLower(pkg.Base)
	list := x.byBase[key]
	for i, existing := range list {
		if existing.Version == pkg.Version {
			list[i] = pkg
			return
		}
	}
	list = append(list, pkg)
	sort.Slice(list, func(i, j int) bool {
		return list[j].Version.Less(list[i].Version)
	})
	x.byBase[key] = list
}

// Len returns the number of indexed packages.
func (x *PackageIndex) Len() int {
	n := 0
	for _, list := range x.byBase {
		n += len(list)
	}
	return n
}

// Bases returns the known base names, sorted.
func (x *PackageIndex) Bases() []string {
	bases := make([]string, 0, len(x.byBase))
	for base := range x.byBase {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	return bases
}

// Versions returns the indexed versions of base, newest first.
func (x *PackageIndex) Versions(base string) []pkgdef.Version {
	list := x.byBase[strings.ToLower(base)]
	versions := make([]pkgdef.Version, len(list))
	for i, p := range list {
		versions[i] = p.Version
	}
	return versions
}

// Requirements returns the parsed requirements of one package version.
func (x *PackageIndex) Requirements(base string, v pkgdef.Version) ([]pkgdef.DepSpec, error) {
	pkg, ok := x.Package(base, v)
	if !ok {
		return nil, nil
	}
	return pkg.ReqSpecs()
}

// Package returns the indexed record for base at version v.
func (x *PackageIndex) Package(base string, v pkgdef.Version) (*pkgdef.Package, bool) {
	for _, p := range x.byBase[strings.ToLower(base)] {
		if p.Version == v {
			return p, true
		}
	}
	return nil, false
}
