// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pkgr-cli/pkg/pkgdef"
)

var infoCmd = &cobra.Command{
	Use:   "info <package>",
	Short: "Show one package in detail",
	Long: `Show one package in detail: its versions, requirements, declared
environments, apps, and resolved dependency set.

The argument is a base name ("maya", showing the newest version), a
full name ("maya-2026.1.0"), or a constrained request ("maya@>=2026").`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}

		pkg, err := resolvePackage(st, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, TitleStyle.Render(pkg.FullName()))
		if pkg.Description != "" {
			fmt.Fprintln(out, SubtitleStyle.Render(pkg.Description))
		}
		fmt.Fprintln(out)

		printField(out, "source", pkg.Source)
		printField(out, "tags", strings.Join(pkg.Tags, ", "))

		if versions := st.Versions(pkg.Base); len(versions) > 1 {
			printField(out, "versions", versionList(versions))
		}

		if len(pkg.Reqs) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, TitleStyle.Render("Requires"))
			for _, req := range pkg.Reqs {
				fmt.Fprintf(out, "  %s\n", PkgStyle.Render(req))
			}
		}

		if len(pkg.Deps) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, TitleStyle.Render("Resolved"))
			for i := range pkg.Deps {
				fmt.Fprintf(out, "  %s\n", SuccessStyle.Render(pkg.Deps[i].FullName()))
			}
		}

		if len(pkg.Envs) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, TitleStyle.Render("Environments"))
			for _, env := range pkg.Envs {
				fmt.Fprintf(out, "  %s %s\n",
					PkgStyle.Render(env.Name),
					SubtitleStyle.Render(fmt.Sprintf("(%d evars)", len(env.Evars))))
			}
		}

		if len(pkg.Apps) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, TitleStyle.Render("Apps"))
			for _, app := range pkg.Apps {
				fmt.Fprintf(out, "  %s %s\n",
					PkgStyle.Render(app.Name),
					SubtitleStyle.Render(appSummary(app)))
			}
		}

		return nil
	},
}

// printField prints one "key: value" info line, skipping empty values.
func printField(out io.Writer, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", PkgStyle.Render(key), value)
}

// appSummary renders an app's launch line for the info listing.
func appSummary(app pkgdef.App) string {
	parts := []string{app.Path}
	if app.Path == "" {
		parts = []string{app.Name}
	}
	parts = append(parts, app.Args...)
	line := strings.Join(parts, " ")
	if app.Env() != pkgdef.DefaultEnvName {
		line += " [env " + app.Env() + "]"
	}
	return line
}
