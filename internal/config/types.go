// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pkgr-cli/pkg/pkgdef"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidRepoRootPath is the sentinel error wrapped by InvalidRepoRootPathError.
	ErrInvalidRepoRootPath = errors.New("invalid repository root path")
	// ErrInvalidCachePath is returned when a CachePath value is whitespace-only.
	ErrInvalidCachePath = errors.New("invalid cache path")
	// ErrInvalidExcludePattern is the sentinel error wrapped by InvalidExcludePatternError.
	ErrInvalidExcludePattern = errors.New("invalid exclude pattern")
	// ErrInvalidEnvSettings is the sentinel error wrapped by InvalidEnvSettingsError.
	ErrInvalidEnvSettings = errors.New("invalid env settings")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// RepoRootPath represents a filesystem path to a repository root
	// holding package definitions. A valid path must be non-empty and
	// not whitespace-only.
	RepoRootPath string

	// InvalidRepoRootPathError is returned when a RepoRootPath value is
	// empty or whitespace-only. It wraps ErrInvalidRepoRootPath for errors.Is().
	InvalidRepoRootPathError struct {
		Value RepoRootPath
	}

	// CachePath represents a filesystem path to the scan cache file.
	// The zero value ("") is valid and means "use the default location".
	CachePath string

	// InvalidCachePathError is returned when a CachePath value is
	// non-empty but whitespace-only.
	InvalidCachePathError struct {
		Value CachePath
	}

	// ExcludePattern is a glob matched against package base names and
	// full names during a scan. It must be a well-formed filepath.Match
	// pattern.
	ExcludePattern string

	// InvalidExcludePatternError is returned when an ExcludePattern is
	// empty or malformed. It wraps ErrInvalidExcludePattern for errors.Is().
	InvalidExcludePatternError struct {
		Value ExcludePattern
	}

	// InvalidEnvSettingsError is returned when EnvSettings has invalid fields.
	// It wraps ErrInvalidEnvSettings for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidEnvSettingsError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	// It wraps ErrInvalidUIConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Locations are repository roots scanned for package definitions,
		// highest priority first. They rank above PKG_LOCATIONS and the
		// implicit ./repo root.
		Locations []RepoRootPath `json:"locations" mapstructure:"locations"`
		// UserPackages enables the per-user ~/packages repository root.
		UserPackages bool `json:"user_packages" mapstructure:"user_packages"`
		// Excludes drops matching packages from every scan.
		Excludes []ExcludePattern `json:"excludes" mapstructure:"excludes"`
		// CachePath overrides where the scan cache file is written.
		CachePath CachePath `json:"cache_path" mapstructure:"cache_path"`
		// Env configures environment composition and token expansion.
		Env EnvSettings `json:"env" mapstructure:"env"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// EnvSettings configures environment composition and token expansion.
	EnvSettings struct {
		// Name is the env composed when a command does not name one.
		Name string `json:"name" mapstructure:"name"`
		// MaxDepth bounds recursive token expansion.
		MaxDepth int `json:"max_depth" mapstructure:"max_depth"`
		// Strict fails on unknown tokens instead of keeping the literal.
		Strict bool `json:"strict" mapstructure:"strict"`
		// OSFallback consults the process environment for tokens no
		// package defines.
		OSFallback bool `json:"os_fallback" mapstructure:"os_fallback"`
		// Passthrough names survive strict mode unexpanded.
		Passthrough []string `json:"passthrough" mapstructure:"passthrough"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// SolveOptions translates the settings into the token expansion options
// used by environment composition.
func (s EnvSettings) SolveOptions() pkgdef.SolveOptions {
	return pkgdef.SolveOptions{
		MaxDepth:    s.MaxDepth,
		OSFallback:  s.OSFallback,
		Strict:      s.Strict,
		Passthrough: append([]string(nil), s.Passthrough...),
	}
}

// IsValid returns whether the EnvSettings has valid fields.
// Name must be non-empty and MaxDepth non-negative; bool fields need
// no validation.
func (s EnvSettings) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, fmt.Errorf("env name must be non-empty"))
	}
	if s.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("env max_depth must be non-negative, got %d", s.MaxDepth))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidEnvSettingsError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidEnvSettingsError.
func (e *InvalidEnvSettingsError) Error() string {
	return fmt.Sprintf("invalid env settings: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidEnvSettings for errors.Is() compatibility.
func (e *InvalidEnvSettingsError) Unwrap() error { return ErrInvalidEnvSettings }

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to each Locations entry, each Excludes pattern,
// CachePath.IsValid(), Env.IsValid(), and UI.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, loc := range c.Locations {
		if valid, fieldErrs := loc.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	for _, pattern := range c.Excludes {
		if valid, fieldErrs := pattern.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.CachePath.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Env.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the RepoRootPath.
func (p RepoRootPath) String() string { return string(p) }

// IsValid returns whether the RepoRootPath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p RepoRootPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidRepoRootPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidRepoRootPathError.
func (e *InvalidRepoRootPathError) Error() string {
	return fmt.Sprintf("invalid repository root path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidRepoRootPath for errors.Is() compatibility.
func (e *InvalidRepoRootPathError) Unwrap() error { return ErrInvalidRepoRootPath }

// String returns the string representation of the CachePath.
func (p CachePath) String() string { return string(p) }

// IsValid returns whether the CachePath is valid.
// The zero value ("") is valid (means "use default cache location").
// Non-zero values must not be whitespace-only.
func (p CachePath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCachePathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCachePathError.
func (e *InvalidCachePathError) Error() string {
	return fmt.Sprintf("invalid cache path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCachePath for errors.Is() compatibility.
func (e *InvalidCachePathError) Unwrap() error { return ErrInvalidCachePath }

// String returns the string representation of the ExcludePattern.
func (p ExcludePattern) String() string { return string(p) }

// IsValid returns whether the ExcludePattern is a well-formed,
// non-empty filepath.Match pattern.
func (p ExcludePattern) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidExcludePatternError{Value: p}}
	}
	if _, err := filepath.Match(string(p), ""); err != nil {
		return false, []error{&InvalidExcludePatternError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidExcludePatternError.
func (e *InvalidExcludePatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q: must be a non-empty glob", e.Value)
}

// Unwrap returns ErrInvalidExcludePattern for errors.Is() compatibility.
func (e *InvalidExcludePatternError) Unwrap() error { return ErrInvalidExcludePattern }

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// RootPaths returns the configured repository roots as plain strings.
func (c *Config) RootPaths() []string {
	out := make([]string, len(c.Locations))
	for i, loc := range c.Locations {
		out[i] = string(loc)
	}
	return out
}

// ExcludeGlobs returns the configured exclude patterns as plain strings.
func (c *Config) ExcludeGlobs() []string {
	out := make([]string, len(c.Excludes))
	for i, pattern := range c.Excludes {
		out[i] = string(pattern)
	}
	return out
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Locations:    []RepoRootPath{},
		UserPackages: true,
		Excludes:     []ExcludePattern{},
		CachePath:    "", // Will use ConfigDir()/pkgr.cache if empty
		Env: EnvSettings{
			Name:       pkgdef.DefaultEnvName,
			MaxDepth:   pkgdef.DefaultMaxDepth,
			Strict:     false,
			OSFallback: true,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
