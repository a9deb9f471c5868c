// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pkgr-cli/internal/launch"
	"pkgr-cli/pkg/pkgdef"
)

var (
	envFlagName   string
	envFormat     string
	envSubshell   bool
	envInheritOS  bool
	envWorkingDir string
)

var envCmd = &cobra.Command{
	Use:   "env <package>... [-- command...]",
	Short: "Compose and export a package environment",
	Long: `Compose the merged environment of the requested packages and their
resolved dependencies.

Without a command the environment is printed in the selected format:
'sh' (POSIX export lines), 'ps1' (PowerShell), 'cmd' (batch), or
'json'. With '--' the rest of the line runs inside the composed
environment through the embedded shell interpreter; with --subshell
an interactive shell is spawned instead. Exit codes pass through.`,
	Example: `  pkgr env maya redshift
  pkgr env maya --format ps1
  pkgr env "maya@>=2026" -- mayapy build.py
  pkgr env houdini --subshell`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reqs, cmdline := splitAtDash(args, cmd.ArgsLenAtDash())
		if len(reqs) == 0 {
			return fmt.Errorf("at least one package must be named before '--'")
		}

		st, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}

		env, err := composeRequest(st, reqs, envName(envFlagName))
		if err != nil {
			return err
		}

		opts := launch.Options{
			Dir:       envWorkingDir,
			InheritOS: envInheritOS,
			Stdout:    cmd.OutOrStdout(),
			Stderr:    cmd.ErrOrStderr(),
			Stdin:     cmd.InOrStdin(),
		}

		switch {
		case envSubshell:
			// Launch failures are reported by finishLaunch with the
			// right exit code; Cobra must not add usage noise on top.
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			fmt.Fprintln(cmd.ErrOrStderr(),
				SubtitleStyle.Render("Entering subshell for "+strings.Join(reqs, ", ")+" (exit to leave)"))
			return finishLaunch(launch.Subshell(cmd.Context(), env, opts))
		case len(cmdline) > 0:
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return finishLaunch(launch.Command(cmd.Context(), strings.Join(cmdline, " "), env, opts))
		default:
			return emitEnv(cmd, env)
		}
	},
}

func init() {
	envCmd.Flags().StringVar(&envFlagName, "env", "", "environment name to compose (default from config)")
	envCmd.Flags().StringVar(&envFormat, "format", "sh", "output format: sh, ps1, cmd, or json")
	envCmd.Flags().BoolVar(&envSubshell, "subshell", false, "spawn an interactive shell in the composed environment")
	envCmd.Flags().BoolVar(&envInheritOS, "inherit-os", false, "layer the composed environment over the OS environment")
	envCmd.Flags().StringVar(&envWorkingDir, "dir", "", "working directory for the command or subshell")
}

// splitAtDash separates package requests from the command line after
// the '--' terminator. dashAt is Cobra's ArgsLenAtDash: -1 when absent.
func splitAtDash(args []string, dashAt int) (reqs, cmdline []string) {
	if dashAt < 0 {
		return args, nil
	}
	return args[:dashAt], args[dashAt:]
}

// emitEnv writes the composed environment in the selected format.
func emitEnv(cmd *cobra.Command, env pkgdef.Env) error {
	out := cmd.OutOrStdout()
	switch envFormat {
	case "sh":
		fmt.Fprintln(out, env.ToSh())
	case "ps1":
		fmt.Fprintln(out, env.ToPs1())
	case "cmd":
		fmt.Fprintln(out, env.ToCmd())
	case "json":
		data, err := json.MarshalIndent(env.ToMap(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	default:
		return fmt.Errorf("unknown format %q (want sh, ps1, cmd, or json)", envFormat)
	}
	return nil
}

// finishLaunch prints a launch failure and converts the result into
// the command's return value, so exit codes reach the caller.
func finishLaunch(res *launch.Result) error {
	if res.Error != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(res.Error, verbose))
	}
	return exitResult(res)
}
