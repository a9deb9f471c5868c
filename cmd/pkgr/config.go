// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pkgr-cli/internal/config"
	"pkgr-cli/internal/issue"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pkgr configuration",
	Long: `Manage pkgr configuration.

Configuration is stored in:
  - Linux: ~/.config/pkgr/config.cue
  - macOS: ~/Library/Application Support/pkgr/config.cue
  - Windows: %APPDATA%\pkgr\config.cue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile(cmd)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(config.Get()))
			return nil
		},
	})
}

func showConfig(cmd *cobra.Command) error {
	cfg := config.Get()
	if err := config.LastLoadError(); err != nil {
		renderIssue(issue.ConfigLoadFailedId)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(out)

	// The file path is derived, not cached: loading falls back to
	// defaults when the file does not exist.
	if cfgDir, err := config.ConfigDir(); err == nil {
		cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			fmt.Fprintf(out, "%s: %s\n", PkgStyle.Render("Config file"), cfgPath)
		} else {
			fmt.Fprintf(out, "%s: %s\n", PkgStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
		}
	}
	fmt.Fprintln(out)

	locations := make([]string, len(cfg.Locations))
	for i, loc := range cfg.Locations {
		locations[i] = loc.String()
	}
	showValue(out, "locations", strings.Join(locations, ", "))
	showValue(out, "user_packages", fmt.Sprintf("%t", cfg.UserPackages))
	showValue(out, "excludes", strings.Join(cfg.ExcludeGlobs(), ", "))
	showValue(out, "cache_path", cfg.CachePath.String())
	showValue(out, "env.name", cfg.Env.Name)
	showValue(out, "env.max_depth", fmt.Sprintf("%d", cfg.Env.MaxDepth))
	showValue(out, "env.strict", fmt.Sprintf("%t", cfg.Env.Strict))
	showValue(out, "env.os_fallback", fmt.Sprintf("%t", cfg.Env.OSFallback))
	showValue(out, "env.passthrough", strings.Join(cfg.Env.Passthrough, ", "))
	showValue(out, "ui.color_scheme", cfg.UI.ColorScheme.String())
	showValue(out, "ui.verbose", fmt.Sprintf("%t", cfg.UI.Verbose))

	return nil
}

// showValue prints one configuration key/value line, with a muted
// placeholder for unset values.
func showValue(out io.Writer, key, value string) {
	if value == "" {
		fmt.Fprintf(out, "%s: %s\n", PkgStyle.Render(key), SubtitleStyle.Render("(unset)"))
		return
	}
	fmt.Fprintf(out, "%s: %s\n", PkgStyle.Render(key), SuccessStyle.Render(value))
}

func initConfigFile(cmd *cobra.Command) error {
	if err := config.CreateDefaultConfig(); err != nil {
		return err
	}

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(),
		SuccessStyle.Render("Created ")+filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
