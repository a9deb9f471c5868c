// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"

	"pkgr-cli/pkg/pkgdef"
)

// ErrShellNotFound is returned when no system shell can be located for
// a subshell session.
var ErrShellNotFound = errors.New("no shell found")

// Subshell spawns the user's shell with the composed environment, for
// interactive sessions inside a package context. The shell always
// inherits the process environment underneath the composed one.
func Subshell(ctx context.Context, env pkgdef.Env, opts Options) *Result {
	shell, err := systemShell()
	if err != nil {
		return NewErrorResult(1, err)
	}

	cmd := exec.CommandContext(ctx, shell)
	cmd.Dir = opts.Dir
	cmd.Env = Environ(env, true)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = opts.stdio()

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return NewExitCodeResult(ExitCode(exitErr.ExitCode()))
		}
		return NewErrorResult(1, err)
	}

	return NewSuccessResult()
}

// systemShell locates the shell for subshell sessions.
func systemShell() (string, error) {
	switch runtime.GOOS {
	case "windows":
		// Try PowerShell first, then cmd
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		if cmd, err := exec.LookPath("cmd"); err == nil {
			return cmd, nil
		}
		return "", ErrShellNotFound
	default:
		// Unix-like: use SHELL env var, or fall back to common shells
		if shell := os.Getenv("SHELL"); shell != "" {
			return shell, nil
		}
		if bash, err := exec.LookPath("bash"); err == nil {
			return bash, nil
		}
		if sh, err := exec.LookPath("sh"); err == nil {
			return sh, nil
		}
		return "", ErrShellNotFound
	}
}
