// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pkgr-cli/internal/cache"
	"pkgr-cli/internal/config"
	"pkgr-cli/internal/issue"
	"pkgr-cli/internal/solver"
	"pkgr-cli/internal/storage"
	"pkgr-cli/pkg/pkgdef"
)

// openStorage scans the configured repository roots and returns the
// package index. Scan warnings go to stderr in verbose mode; an empty
// root set renders the no-locations help and fails.
func openStorage(ctx context.Context) (*storage.Storage, error) {
	cfg := config.Get()

	var c *cache.Cache
	if cachePath, err := cfg.CacheFilePath(); err == nil {
		c = cache.Load(cachePath)
	}

	st, err := storage.Scan(ctx, storage.Options{
		Roots:        cfg.RootPaths(),
		UserPackages: cfg.UserPackages,
		Excludes:     cfg.ExcludeGlobs(),
		Cache:        c,
	})
	if err != nil {
		return nil, err
	}

	if len(st.Roots()) == 0 {
		renderIssue(issue.NoLocationsId)
		return nil, issue.NewErrorContext().
			WithOperation("scan package repositories").
			WithSuggestion("Add a repository root under 'locations' in the config file").
			WithSuggestion("Or set the PKG_LOCATIONS environment variable").
			Wrap(errors.New("no repository locations configured")).
			BuildError()
	}

	if verbose {
		for _, w := range st.Warnings() {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+w.String())
		}
	}

	return st, nil
}

// resolvePackage looks a package up by name or full name and solves
// its dependencies, rendering catalog help on failure.
func resolvePackage(st *storage.Storage, name string) (*pkgdef.Package, error) {
	pkg, err := st.ResolveName(name)
	if err != nil {
		return nil, packageLookupError(name, err)
	}

	if err := solver.ResolveDeps(st.Index(), pkg); err != nil {
		renderIssue(issue.SolveFailedId)
		return nil, issue.NewErrorContext().
			WithOperation("solve dependencies").
			WithResource(pkg.FullName()).
			WithSuggestion("Run 'pkgr info " + pkg.Base + "' to inspect its requirements").
			Wrap(err).
			BuildError()
	}

	return pkg, nil
}

// solveRequest solves a set of requirement strings against the index.
func solveRequest(st *storage.Storage, reqs []string) (*solver.Solution, []pkgdef.DepSpec, error) {
	specs, err := pkgdef.ParseDepSpecs(reqs)
	if err != nil {
		return nil, nil, err
	}

	sol, err := solver.Solve(st.Index(), specs)
	if err != nil {
		var noMatch *solver.NoMatchingVersionError
		if errors.As(err, &noMatch) && len(noMatch.Available) == 0 {
			return nil, nil, packageLookupError(noMatch.Base, suggestNotFound(st, noMatch.Base))
		}
		renderIssue(issue.SolveFailedId)
		return nil, nil, issue.NewErrorContext().
			WithOperation("solve requested packages").
			WithSuggestion("Relax the version constraints or run 'pkgr list' to see what is available").
			Wrap(err).
			BuildError()
	}

	return sol, specs, nil
}

// suggestNotFound builds a NotFoundError carrying near-miss names.
func suggestNotFound(st *storage.Storage, base string) error {
	return &storage.NotFoundError{Query: base, Suggestions: st.Suggest(base)}
}

// packageLookupError renders the not-found catalog entry and wraps the
// lookup failure with suggestions, including fuzzy near-misses.
func packageLookupError(name string, err error) error {
	renderIssue(issue.PackageNotFoundId)

	ec := issue.NewErrorContext().
		WithOperation("find package").
		WithResource(name).
		WithSuggestion("Run 'pkgr list' to see available packages")

	var nf *storage.NotFoundError
	if errors.As(err, &nf) {
		for _, s := range nf.Suggestions {
			ec = ec.WithSuggestion("Did you mean '" + s + "'?")
		}
	}

	return ec.Wrap(err).BuildError()
}

// composeRequest solves the requested packages and composes their
// shared environment.
func composeRequest(st *storage.Storage, reqs []string, envName string) (pkgdef.Env, error) {
	sol, specs, err := solveRequest(st, reqs)
	if err != nil {
		return pkgdef.Env{}, err
	}

	env, err := pkgdef.ComposeEnv(sol.Packages, specs, envName, envOptions())
	if err != nil {
		return pkgdef.Env{}, composeError(envName, err)
	}
	return env, nil
}

// envOptions builds the composition options from config.
func envOptions() pkgdef.EnvOptions {
	opts := pkgdef.DefaultEnvOptions()
	opts.Solve = config.Get().Env.SolveOptions()
	return opts
}

// composeError wraps an env composition failure with catalog help for
// the known failure modes.
func composeError(envName string, err error) error {
	switch {
	case errors.Is(err, pkgdef.ErrCircularReference):
		renderIssue(issue.CircularReferenceId)
	case errors.Is(err, pkgdef.ErrEnvNotFound):
		renderIssue(issue.EnvNotFoundId)
	}
	return issue.NewErrorContext().
		WithOperation("compose environment").
		WithResource(envName).
		Wrap(err).
		BuildError()
}

// envName returns the flag value or the configured default env name.
func envName(flag string) string {
	if flag != "" {
		return flag
	}
	if name := config.Get().Env.Name; name != "" {
		return name
	}
	return pkgdef.DefaultEnvName
}
