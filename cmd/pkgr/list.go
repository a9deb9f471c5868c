// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"pkgr-cli/pkg/pkgdef"
)

var listTag string

var listCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "List available packages",
	Long: `List available packages across all repository roots.

An optional filter argument fuzzy-matches against base names. The
--tag flag keeps only packages carrying the given tag.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}

		bases := st.Bases()
		if len(args) == 1 {
			matches := fuzzy.Find(args[0], bases)
			filtered := make([]string, 0, len(matches))
			for _, m := range matches {
				filtered = append(filtered, m.Str)
			}
			bases = filtered
		}

		shown := 0
		for _, base := range bases {
			versions := st.Versions(base)
			if listTag != "" {
				latest, ok := st.Latest(base)
				if !ok || !latest.HasTag(listTag) {
					continue
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				PkgStyle.Render(base),
				SubtitleStyle.Render(versionList(versions)))
			shown++
		}

		if shown == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("No packages found."))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listTag, "tag", "", "only list packages carrying this tag")
}

// versionList renders versions for display, preserving the index's
// newest-first order.
func versionList(versions []pkgdef.Version) string {
	rendered := make([]string, len(versions))
	for i, v := range versions {
		rendered[i] = v.String()
	}
	return strings.Join(rendered, ", ")
}
