// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

type (
	// SolveStatus records whether a package's dependency set has been
	// resolved.
	SolveStatus string

	// Package is an immutable package record produced by the definition
	// loader. Deps and Status are the only fields written after
	// construction, set exactly once by the solver.
	Package struct {
		// Base is the package family name (e.g., "maya").
		Base string

		// Version is the concrete version of this record.
		Version Version

		// Description is the author's one-line summary, if any.
		Description string

		// Reqs are the authored requirement strings, in author order.
		// Order matters: the env composer uses it for PATH precedence
		// and the solver for tie-breaking.
		Reqs []string

		// Envs are the named environments this package declares.
		Envs []Env

		// Apps are the launchable applications this package declares.
		Apps []App

		// Tags categorise the package ("dcc", "renderer", "toolset", ...).
		Tags []string

		// Source is the definition file path this record was loaded
		// from. Empty for synthetic packages.
		Source string

		// Deps holds copies of all transitively resolved dependency
		// packages, in solver decision order. Copies, not references:
		// a solved package is a self-contained artefact.
		Deps []Package

		// Status is StatusUnresolved until the solver populates Deps.
		Status SolveStatus
	}
)

// Solve statuses.
const (
	StatusUnresolved SolveStatus = "unresolved"
	StatusSolved     SolveStatus = "solved"
)

// NewPackage creates an unresolved package record.
func NewPackage(base string, version Version) *Package {
	return &Package{Base: base, Version: version, Status: StatusUnresolved}
}

// FullName returns the unique "base-X.Y.Z" index key.
func (p *Package) FullName() string {
	return fmt.Sprintf("%s-%s", p.Base, p.Version)
}

// SourceDir returns the directory containing the definition file, or
// the empty string for synthetic packages.
func (p *Package) SourceDir() string {
	if p.Source == "" {
		return ""
	}
	return filepath.Dir(p.Source)
}

// ReqSpecs parses the authored requirement strings.
func (p *Package) ReqSpecs() ([]DepSpec, error) {
	return ParseDepSpecs(p.Reqs)
}

// EnvByName returns the named env, or EnvNotFoundError.
func (p *Package) EnvByName(name string) (Env, error) {
	for _, env := range p.Envs {
		if env.Name == name {
			return env, nil
		}
	}
	return Env{}, &EnvNotFoundError{Package: p.FullName(), Env: name}
}

// AppByName returns the named app, searching own apps first and then
// resolved dependencies, or AppNotFoundError.
func (p *Package) AppByName(name string) (App, error) {
	for _, app := range p.Apps {
		if app.Name == name {
			return app, nil
		}
	}
	for i := range p.Deps {
		for _, app := range p.Deps[i].Apps {
			if app.Name == name {
				return app, nil
			}
		}
	}
	return App{}, &AppNotFoundError{Package: p.FullName(), App: name}
}

// SetResolved records the solver's output. Deps is the flat list of all
// transitively resolved packages in solver decision order, excluding p
// itself.
func (p *Package) SetResolved(deps []Package) {
	p.Deps = deps
	p.Status = StatusSolved
}

// EnvOptions configures EffectiveEnv.
type EnvOptions struct {
	// WithDeps merges resolved dependency envs into the result.
	WithDeps bool

	// Stamp injects identity evars (PKG_<BASE>, PKG_<BASE>_ROOT) for
	// this package and, with WithDeps, every resolved dependency.
	Stamp bool

	// Solve configures token expansion.
	Solve SolveOptions
}

// DefaultEnvOptions returns the options the CLI composes with: deps
// merged, stamps on, lenient token expansion.
func DefaultEnvOptions() EnvOptions {
	return EnvOptions{WithDeps: true, Stamp: true, Solve: DefaultSolveOptions()}
}

// EffectiveEnv composes the package's named env with its resolved
// dependencies, compresses, and expands tokens.
//
// Composition order: own evars first, then direct dependencies in
// requirement order, then transitive dependencies in solver order.
// With append-action PATH entries this yields "own bin, then first
// req's, then second req's, then transitives" precedence.
//
// A package without the named env contributes nothing of its own but
// still composes its dependencies; this is how toolsets work.
func (p *Package) EffectiveEnv(name string, opts EnvOptions) (Env, error) {
	own, err := p.EnvByName(name)
	if err != nil {
		own = NewEnv(name)
	}
	acc := own
	acc.Name = name

	if opts.WithDeps {
		for _, dep := range p.orderedDeps() {
			if depEnv, err := dep.EnvByName(name); err == nil {
				acc = acc.Merge(depEnv)
			}
		}
	}

	if opts.Stamp {
		stamp := Env{Name: name, Evars: p.Stamp()}
		if opts.WithDeps {
			for i := range p.Deps {
				stamp.Evars = append(stamp.Evars, p.Deps[i].Stamp()...)
			}
		}
		acc = acc.Merge(stamp)
	}

	return acc.Solve(opts.Solve)
}

// orderedDeps partitions Deps into direct dependencies (those named by
// Reqs, in requirement order) followed by transitives (the rest, in
// solver order).
func (p *Package) orderedDeps() []*Package {
	if len(p.Deps) == 0 {
		return nil
	}

	byBase := make(map[string]*Package, len(p.Deps))
	for i := range p.Deps {
		byBase[p.Deps[i].Base] = &p.Deps[i]
	}

	ordered := make([]*Package, 0, len(p.Deps))
	direct := make(map[string]struct{}, len(p.Reqs))
	for _, req := range p.Reqs {
		spec, err := ParseDepSpec(req)
		if err != nil {
			continue
		}
		if dep, ok := byBase[spec.Base]; ok {
			if _, seen := direct[spec.Base]; !seen {
				direct[spec.Base] = struct{}{}
				ordered = append(ordered, dep)
			}
		}
	}
	for i := range p.Deps {
		if _, ok := direct[p.Deps[i].Base]; !ok {
			ordered = append(ordered, &p.Deps[i])
		}
	}
	return ordered
}

// ComposeEnv composes the named env across an already-solved package
// set, for requests naming several packages at once. Requested bases
// come first in request order, then the rest of the set in the given
// order; stamps for every package fold in last. Packages without the
// named env contribute only their stamps.
func ComposeEnv(pkgs []*Package, reqs []DepSpec, name string, opts EnvOptions) (Env, error) {
	acc := NewEnv(name)
	ordered := orderByRequest(pkgs, reqs)
	for _, p := range ordered {
		if env, err := p.EnvByName(name); err == nil {
			acc = acc.Merge(env)
		}
	}

	if opts.Stamp {
		stamp := Env{Name: name}
		for _, p := range ordered {
			stamp.Evars = append(stamp.Evars, p.Stamp()...)
		}
		acc = acc.Merge(stamp)
	}

	return acc.Solve(opts.Solve)
}

// orderByRequest partitions pkgs into those whose base a request names
// (in request order) followed by the rest (in the given order).
func orderByRequest(pkgs []*Package, reqs []DepSpec) []*Package {
	byBase := make(map[string]*Package, len(pkgs))
	for _, p := range pkgs {
		byBase[p.Base] = p
	}

	ordered := make([]*Package, 0, len(pkgs))
	direct := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		if p, ok := byBase[req.Base]; ok {
			if _, seen := direct[req.Base]; !seen {
				direct[req.Base] = struct{}{}
				ordered = append(ordered, p)
			}
		}
	}
	for _, p := range pkgs {
		if _, ok := direct[p.Base]; !ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Stamp returns the identity evars recording this package's presence
// in a composed environment: PKG_<BASE>=<version> and, when the source
// is known, PKG_<BASE>_ROOT=<definition dir>. <BASE> is uppercased
// with dashes mapped to underscores.
func (p *Package) Stamp() []Evar {
	prefix := "PKG_" + strings.ToUpper(strings.ReplaceAll(p.Base, "-", "_"))
	evars := []Evar{SetEvar(prefix, p.Version.String())}
	if dir := p.SourceDir(); dir != "" {
		evars = append(evars, SetEvar(prefix+"_ROOT", dir))
	}
	return evars
}

// HasTag reports whether the package carries the given tag.
func (p *Package) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// packageJSON is the serialised snapshot form used by the scan cache.
// Resolved deps serialise as full names only; a snapshot read back is
// always unresolved.
type packageJSON struct {
	Base        string   `json:"base"`
	Version     Version  `json:"version"`
	Description string   `json:"description,omitempty"`
	Reqs        []string `json:"reqs,omitempty"`
	Envs        []Env    `json:"envs,omitempty"`
	Apps        []App    `json:"apps,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Source      string   `json:"source,omitempty"`
	Deps        []string `json:"deps,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p *Package) MarshalJSON() ([]byte, error) {
	snap := packageJSON{
		Base:        p.Base,
		Version:     p.Version,
		Description: p.Description,
		Reqs:        p.Reqs,
		Envs:        p.Envs,
		Apps:        p.Apps,
		Tags:        p.Tags,
		Source:      p.Source,
	}
	for i := range p.Deps {
		snap.Deps = append(snap.Deps, p.Deps[i].FullName())
	}
	return json.Marshal(snap)
}

// UnmarshalJSON implements json.Unmarshaler. Dep full names are not
// restored as packages; the snapshot comes back unresolved.
func (p *Package) UnmarshalJSON(data []byte) error {
	var snap packageJSON
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	*p = Package{
		Base:        snap.Base,
		Version:     snap.Version,
		Description: snap.Description,
		Reqs:        snap.Reqs,
		Envs:        snap.Envs,
		Apps:        snap.Apps,
		Tags:        snap.Tags,
		Source:      snap.Source,
		Status:      StatusUnresolved,
	}
	return nil
}
