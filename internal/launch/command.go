// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"pkgr-cli/pkg/pkgdef"
)

// Command runs a shell command line in the composed environment using
// the embedded interpreter, so behavior does not depend on the host
// shell. Exit codes pass through.
func Command(ctx context.Context, line string, env pkgdef.Env, opts Options) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(line), "command")
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("command syntax error: %w", err))
	}

	stdin, stdout, stderr := opts.stdio()

	runner, err := interp.New(
		interp.Dir(opts.Dir),
		interp.Env(expand.ListEnviron(Environ(env, opts.InheritOS)...)),
		interp.StdIO(stdin, stdout, stderr),
	)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	return runResult(runner.Run(ctx, prog), nil, nil)
}

// CommandCapture runs a command line like Command but captures its
// output instead of streaming it.
func CommandCapture(ctx context.Context, line string, env pkgdef.Env, opts Options) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(line), "command")
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("command syntax error: %w", err))
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Dir(opts.Dir),
		interp.Env(expand.ListEnviron(Environ(env, opts.InheritOS)...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	return runResult(runner.Run(ctx, prog), &stdout, &stderr)
}

// runResult maps an interpreter run error to a Result, attaching any
// captured output.
func runResult(err error, stdout, stderr *bytes.Buffer) *Result {
	result := &Result{}
	if stdout != nil {
		result.Output = stdout.String()
	}
	if stderr != nil {
		result.ErrOutput = stderr.String()
	}

	if err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result.ExitCode = ExitCode(exitStatus)
		} else {
			result.ExitCode = 1
			result.Error = fmt.Errorf("command execution failed: %w", err)
		}
	}
	return result
}
