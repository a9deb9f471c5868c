// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"pkgr-cli/internal/launch"
)

// ExitError signals a non-zero exit code without forcing os.Exit in
// RunE handlers. Execute unwraps it and exits with the carried code,
// so launched apps and command lines pass their exit status through.
type ExitError struct {
	Code launch.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitResult converts a launch result into a RunE return value: nil on
// success, an ExitError carrying the code otherwise.
func exitResult(res *launch.Result) error {
	if res.Error == nil && res.ExitCode.IsSuccess() {
		return nil
	}
	return &ExitError{Code: res.ExitCode, Err: res.Error}
}
