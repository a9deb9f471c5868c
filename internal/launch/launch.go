// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"pkgr-cli/pkg/pkgdef"
)

// Options configures a launch.
type Options struct {
	// EnvName overrides the app's own env selection. Empty keeps the
	// app's choice (or "default" for command lines and subshells).
	EnvName string

	// Solve configures token expansion of the composed environment and
	// of the app's path, args, and cwd.
	Solve pkgdef.SolveOptions

	// Args are appended after the app's declared arguments.
	Args []string

	// Dir overrides the working directory. Empty falls back to the
	// app's cwd, then to the caller's.
	Dir string

	// InheritOS merges the process environment underneath the composed
	// one. Composed values always win.
	InheritOS bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// stdio returns the configured streams, defaulting to the process's own.
func (o Options) stdio() (io.Reader, io.Writer, io.Writer) {
	stdin, stdout, stderr := o.Stdin, o.Stdout, o.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdin, stdout, stderr
}

// envName returns the env to compose for the given app.
func (o Options) envName(app pkgdef.App) string {
	if o.EnvName != "" {
		return o.EnvName
	}
	return app.Env()
}

// App composes the package's environment and spawns the named app in
// it. The app's path, args, and cwd are token-expanded against the
// composed env; a bare path resolves through the composed PATH.
func App(ctx context.Context, pkg *pkgdef.Package, appName string, opts Options) *Result {
	app, err := pkg.AppByName(appName)
	if err != nil {
		return NewErrorResult(1, err)
	}

	env, err := pkg.EffectiveEnv(opts.envName(app), pkgdef.EnvOptions{
		WithDeps: true,
		Stamp:    true,
		Solve:    opts.Solve,
	})
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("composing environment: %w", err))
	}

	path := app.Path
	if path == "" {
		path = app.Name
	}
	if path, err = env.Expand(path, opts.Solve); err != nil {
		return NewErrorResult(1, fmt.Errorf("expanding app path: %w", err))
	}
	path = lookPath(env, path)

	args := make([]string, 0, len(app.Args)+len(opts.Args))
	for _, arg := range app.Args {
		expanded, err := env.Expand(arg, opts.Solve)
		if err != nil {
			return NewErrorResult(1, fmt.Errorf("expanding app args: %w", err))
		}
		args = append(args, expanded)
	}
	args = append(args, opts.Args...)

	dir := opts.Dir
	if dir == "" && app.Cwd != "" {
		if dir, err = env.Expand(app.Cwd, opts.Solve); err != nil {
			return NewErrorResult(1, fmt.Errorf("expanding app cwd: %w", err))
		}
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Env = Environ(env, opts.InheritOS)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = opts.stdio()

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return NewExitCodeResult(ExitCode(exitErr.ExitCode()))
		}
		return NewErrorResult(1, fmt.Errorf("failed to launch %s: %w", appName, err))
	}

	return NewSuccessResult()
}
