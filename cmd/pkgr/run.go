// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"pkgr-cli/internal/config"
	"pkgr-cli/internal/issue"
	"pkgr-cli/internal/launch"
	"pkgr-cli/pkg/pkgdef"
)

var (
	runFlagEnv    string
	runWorkingDir string
	runIsolated   bool
)

var runCmd = &cobra.Command{
	Use:   "run <package> [app] [-- args...]",
	Short: "Launch a package's app in its composed environment",
	Long: `Resolve a package, compose its effective environment, and launch one
of its declared apps.

The app name defaults to the package's base name, or to its only app
when it declares exactly one. Arguments after '--' are appended to
the app's own. The app's exit code becomes pkgr's exit code.`,
	Example: `  pkgr run maya
  pkgr run maya-2026.1.0 mayapy
  pkgr run houdini -- -foreground scene.hip`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		named, extra := splitAtDash(args, cmd.ArgsLenAtDash())
		if len(named) == 0 || len(named) > 2 {
			return cmd.Usage()
		}

		st, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}

		pkg, err := resolvePackage(st, named[0])
		if err != nil {
			return err
		}

		appName, err := pickApp(pkg, named)
		if err != nil {
			renderIssue(issue.AppNotFoundId)
			return issue.NewErrorContext().
				WithOperation("launch app").
				WithResource(pkg.FullName()).
				WithSuggestion("Run 'pkgr info " + pkg.Base + "' to see the declared apps").
				Wrap(err).
				BuildError()
		}

		// From here failures carry their own exit codes.
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true

		return finishLaunch(launch.App(cmd.Context(), pkg, appName, launch.Options{
			EnvName:   runFlagEnv,
			Solve:     config.Get().Env.SolveOptions(),
			Args:      extra,
			Dir:       runWorkingDir,
			InheritOS: !runIsolated,
			Stdin:     cmd.InOrStdin(),
			Stdout:    cmd.OutOrStdout(),
			Stderr:    cmd.ErrOrStderr(),
		}))
	},
}

func init() {
	runCmd.Flags().StringVar(&runFlagEnv, "env", "", "environment name to compose (default: the app's own)")
	runCmd.Flags().StringVar(&runWorkingDir, "dir", "", "working directory for the app")
	runCmd.Flags().BoolVar(&runIsolated, "isolated", false, "do not layer the composed environment over the OS environment")
}

// pickApp chooses the app to launch: the explicit second argument, the
// package's only app, or the app named after the package base.
func pickApp(pkg *pkgdef.Package, named []string) (string, error) {
	if len(named) == 2 {
		if _, err := pkg.AppByName(named[1]); err != nil {
			return "", err
		}
		return named[1], nil
	}
	if len(pkg.Apps) == 1 {
		return pkg.Apps[0].Name, nil
	}
	if _, err := pkg.AppByName(pkg.Base); err != nil {
		return "", err
	}
	return pkg.Base, nil
}
