// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pkgr.
//
// This package implements the Cobra command hierarchy for the pkgr CLI:
// the root command plus subcommands for listing and inspecting packages,
// composing and exporting environments, launching apps, scanning
// repositories, and managing configuration.
package cmd
