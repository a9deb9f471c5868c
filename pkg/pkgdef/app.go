// SPDX-License-Identifier: MPL-2.0

package pkgdef

import (
	"errors"
	"fmt"
)

var (
	// ErrAppNotFound is the sentinel error wrapped by AppNotFoundError.
	ErrAppNotFound = errors.New("app not found")
)

type (
	// App is a launchable application declared by a package. Path, Args,
	// and Cwd may contain {TOKEN} references resolved against the
	// composed environment at launch time.
	App struct {
		// Name identifies the app within its package.
		Name string `json:"name"`

		// Path is the executable to spawn.
		Path string `json:"path,omitempty"`

		// EnvName selects the package env composed for the launch.
		// Empty means "default".
		EnvName string `json:"env_name,omitempty"`

		// Args are passed to the executable.
		Args []string `json:"args,omitempty"`

		// Cwd is the working directory; empty inherits the caller's.
		Cwd string `json:"cwd,omitempty"`

		// Properties carries free-form metadata (icon, category, ...).
		Properties map[string]string `json:"properties,omitempty"`
	}

	// AppNotFoundError is returned when a package declares no app with
	// the requested name.
	AppNotFoundError struct {
		Package string
		App     string
	}
)

// DefaultEnvName is the conventional env an App references when its
// EnvName is unset.
const DefaultEnvName = "default"

// Error implements the error interface.
func (e *AppNotFoundError) Error() string {
	return fmt.Sprintf("package %s has no app %q", e.Package, e.App)
}

// Unwrap returns ErrAppNotFound so callers can use errors.Is.
func (e *AppNotFoundError) Unwrap() error { return ErrAppNotFound }

// Env returns the env name the app launches with.
func (a App) Env() string {
	if a.EnvName == "" {
		return DefaultEnvName
	}
	return a.EnvName
}
