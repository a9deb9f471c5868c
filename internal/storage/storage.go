// SPDX-License-Identifier: MPL-2.0

// Package storage scans repository roots for package definition files
// and serves the resulting index. Roots are walked in parallel but
// indexed sequentially in priority order, so a scan of a fixed tree is
// deterministic regardless of scheduling.
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pkgr-cli/internal/cache"
	"pkgr-cli/internal/solver"
	"pkgr-cli/pkg/pkgdef"
)

// LocationsEnvVar lists additional repository roots, separated by the
// OS path list separator.
const LocationsEnvVar = "PKG_LOCATIONS"

// defaultRepoDir is picked up from the working directory when present.
const defaultRepoDir = "repo"

// userPackagesDir is the per-user repository under the home directory.
const userPackagesDir = "packages"

type (
	// Options configures a scan.
	Options struct {
		// Roots are explicit repository roots, highest priority.
		Roots []string

		// UserPackages enables the ~/packages root.
		UserPackages bool

		// Excludes are glob patterns matched against base names and
		// full names; matching packages are dropped from the index.
		Excludes []string

		// Cache, when non-nil, short-circuits loading of unchanged
		// definition files and is pruned and saved after the scan.
		Cache *cache.Cache
	}

	// Warning is a non-fatal scan problem. Malformed definitions,
	// unreadable files, and duplicate full names never abort a scan.
	Warning struct {
		Path string
		Err  error
	}

	// Storage is the scanned package index.
	Storage struct {
		roots    []string
		packages map[string]*pkgdef.Package
		byBase   map[string][]*pkgdef.Package
		order    []string
		warnings []Warning
	}

	// rootFiles is one root's collected paths, in sorted order.
	rootFiles struct {
		defs     []string
		toolsets []string
		warnings []Warning
	}
)

// String renders the warning for CLI display.
func (w Warning) String() string {
	if w.Path == "" {
		return w.Err.Error()
	}
	return fmt.Sprintf("%s: %v", w.Path, w.Err)
}

// Roots resolves the repository roots for a scan, in priority order:
// explicit roots, then PKG_LOCATIONS, then ./repo when present, then
// ~/packages when user packages are enabled.
func Roots(explicit []string, userPackages bool) []string {
	var roots []string
	roots = append(roots, explicit...)

	if env := os.Getenv(LocationsEnvVar); env != "" {
		for _, p := range filepath.SplitList(env) {
			if p != "" {
				roots = append(roots, p)
			}
		}
	}

	if info, err := os.Stat(defaultRepoDir); err == nil && info.IsDir() {
		roots = append(roots, defaultRepoDir)
	}

	if userPackages {
		if home, err := os.UserHomeDir(); err == nil {
			roots = append(roots, filepath.Join(home, userPackagesDir))
		}
	}

	return dedupeRoots(roots)
}

func dedupeRoots(roots []string) []string {
	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = root
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}

// Scan walks the given roots and builds the package index. Scanning
// never fails on individual definitions; problems accumulate as
// warnings. The only hard errors are context cancellation and a
// requirement the options themselves cannot express.
func Scan(ctx context.Context, opts Options) (*Storage, error) {
	roots := Roots(opts.Roots, opts.UserPackages)

	st := &Storage{
		roots:    roots,
		packages: make(map[string]*pkgdef.Package),
		byBase:   make(map[string][]*pkgdef.Package),
	}

	// Walk all roots in parallel; collect only, index later.
	collected := make([]rootFiles, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		g.Go(func() error {
			collected[i] = collectRoot(ctx, root)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Index sequentially: root priority order, sorted paths within a
	// root. First root wins on duplicate full names.
	seen := make(map[string]struct{})
	observed := make(map[string]struct{})
	for _, files := range collected {
		st.warnings = append(st.warnings, files.warnings...)
		for _, path := range files.defs {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			st.indexDefinition(path, opts, observed)
		}
		for _, path := range files.toolsets {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			st.indexToolsets(path, opts)
		}
	}

	st.finish()

	if opts.Cache != nil {
		opts.Cache.Prune(observed)
		if opts.Cache.Dirty() {
			if err := opts.Cache.Save(); err != nil {
				st.warn(opts.Cache.Path(), err)
			}
		}
	}

	slog.Debug("scan complete",
		"roots", len(roots), "packages", len(st.packages), "warnings", len(st.warnings))
	return st, nil
}

// collectRoot walks one root, gathering definition and toolset files.
func collectRoot(ctx context.Context, root string) rootFiles {
	var files rootFiles
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if !os.IsNotExist(err) {
				files.warnings = append(files.warnings, Warning{Path: path, Err: err})
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case d.Name() == pkgdef.DefinitionFileName:
			files.defs = append(files.defs, path)
		case filepath.Base(filepath.Dir(path)) == toolsetsDirName && strings.HasSuffix(d.Name(), ".toml"):
			files.toolsets = append(files.toolsets, path)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		files.warnings = append(files.warnings, Warning{Path: root, Err: err})
	}
	sort.Strings(files.defs)
	sort.Strings(files.toolsets)
	return files
}

// indexDefinition loads one definition file, via the cache when its
// mtime is unchanged, and inserts the package.
func (st *Storage) indexDefinition(path string, opts Options, observed map[string]struct{}) {
	info, err := os.Stat(path)
	if err != nil {
		st.warn(path, err)
		return
	}
	observed[path] = struct{}{}

	var pkg *pkgdef.Package
	if opts.Cache != nil {
		if cached, ok := opts.Cache.Get(path, info.ModTime()); ok {
			pkg = cached
		}
	}
	if pkg == nil {
		pkg, err = pkgdef.Load(path)
		if err != nil {
			st.warn(path, err)
			return
		}
		if opts.Cache != nil {
			opts.Cache.Put(path, info.ModTime(), pkg)
		}
	}

	st.insert(pkg, opts)
}

// insert adds a package unless excluded; first insertion of a full
// name wins.
func (st *Storage) insert(pkg *pkgdef.Package, opts Options) {
	if excluded(pkg, opts.Excludes) {
		return
	}
	key := strings.ToLower(pkg.FullName())
	if prior, ok := st.packages[key]; ok {
		st.warn(pkg.Source, fmt.Errorf("duplicate package %s (kept %s)", pkg.FullName(), prior.Source))
		return
	}
	st.packages[key] = pkg
	st.order = append(st.order, key)
}

// finish builds the per-base views, newest version first.
func (st *Storage) finish() {
	for _, key := range st.order {
		pkg := st.packages[key]
		base := strings.ToLower(pkg.Base)
		st.byBase[base] = append(st.byBase[base], pkg)
	}
	for _, list := range st.byBase {
		sort.Slice(list, func(i, j int) bool {
			return list[j].Version.Less(list[i].Version)
		})
	}
}

func (st *Storage) warn(path string, err error) {
	st.warnings = append(st.warnings, Warning{Path: path, Err: err})
}

func excluded(pkg *pkgdef.Package, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, pkg.Base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, pkg.FullName()); ok {
			return true
		}
	}
	return false
}

// Roots returns the resolved roots this index was scanned from.
func (st *Storage) Roots() []string { return st.roots }

// Warnings returns the non-fatal problems encountered by the scan.
func (st *Storage) Warnings() []Warning { return st.warnings }

// Index builds the solver's view of this storage.
func (st *Storage) Index() *solver.PackageIndex {
	return solver.NewIndex(st.Packages()...)
}
