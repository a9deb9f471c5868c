// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"pkgr-cli/internal/config"
	"pkgr-cli/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "pkgr",
		Short: "A package manager for VFX and DCC tooling",
		Long: TitleStyle.Render("pkgr") + SubtitleStyle.Render(" - A package manager for VFX and DCC tooling") + `

pkgr discovers packages (Maya, Houdini, Redshift, ...) described by
'package.cue' definition files in filesystem repositories, resolves
version constraints across their dependencies, and composes merged
environment variable sets used to launch applications.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Put package definitions under ./repo or ~/packages
  2. Inspect what was found with: pkgr list
  3. Launch an app with: pkgr run maya

` + SubtitleStyle.Render("Examples:") + `
  pkgr list                        List all available packages
  pkgr info maya                   Show one package in detail
  pkgr env maya redshift           Print the composed environment
  pkgr env maya -- mayapy build.py Run a command line inside it
  pkgr run maya-2026.1.0           Launch the package's app
  pkgr config show                 Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pkgr/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig loads configuration and installs the CLI log handler.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	cfg := config.Get()

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}

	installLogHandler()

	// Always surface config loading problems; Get falls back to defaults.
	if err := config.LastLoadError(); err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}
}

// installLogHandler routes slog through charmbracelet/log, at debug
// level when verbose.
func installLogHandler() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	slog.SetDefault(slog.New(logger))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue prints the catalog entry for an issue to stderr, using
// the configured color scheme. Rendering failures fall back silently
// to the plain error the caller is about to return.
func renderIssue(id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	if rendered, err := entry.Render(colorScheme()); err == nil {
		fmt.Fprint(os.Stderr, rendered)
	}
}

// colorScheme maps the configured scheme to a glamour style name.
func colorScheme() string {
	switch config.Get().UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}
