// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"
)

var (
	globalMu sync.Mutex

	// cached is the lazily loaded process-wide configuration.
	cached *Config

	// lastLoadErr records the most recent load failure so callers of
	// Get can surface it after falling back to defaults.
	lastLoadErr error

	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably respect
	// the HOME environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string

	// configFilePathOverride forces loading from a specific file,
	// typically set from the --config flag.
	configFilePathOverride string
)

// Get returns the process-wide configuration, loading it on first use.
// A load failure falls back to DefaultConfig(); the error is retained
// and available from LastLoadError.
func Get() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()

	if cached != nil {
		return cached
	}

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: configFilePathOverride,
	})
	if err != nil {
		lastLoadErr = err
		cached = DefaultConfig()
		return cached
	}

	lastLoadErr = nil
	cached = cfg
	return cached
}

// LastLoadError returns the error from the most recent implicit load,
// or nil when the load succeeded.
func LastLoadError() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	return lastLoadErr
}

// Reset clears the cached config and all test overrides. Call from
// test cleanup to restore defaults.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	cached = nil
	lastLoadErr = nil
	configDirOverride = ""
	configFilePathOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	configDirOverride = dir
	cached = nil
	lastLoadErr = nil
}

// SetConfigFilePathOverride forces subsequent loads to read the given
// file exclusively and invalidates the cached config.
func SetConfigFilePathOverride(path string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	configFilePathOverride = path
	cached = nil
	lastLoadErr = nil
}
