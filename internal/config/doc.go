// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/pkgr/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/pkgr/config.cue on macOS, %APPDATA%\pkgr\config.cue
// on Windows). The package provides type-safe configuration access and covers repository
// locations, scan excludes, the scan cache path, environment solving, and UI settings.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
