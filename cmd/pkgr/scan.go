// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan repository roots and refresh the cache",
	Long: `Scan all configured repository roots, rebuild the package index,
and refresh the definition cache.

Every scan reports where it looked, what it found, and any definition
files it could not load. Malformed definitions never abort a scan.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, TitleStyle.Render("Repository roots"))
		for _, root := range st.Roots() {
			fmt.Fprintf(out, "  %s\n", PkgStyle.Render(root))
		}
		fmt.Fprintln(out)

		fmt.Fprintf(out, "%s %d package(s), %d base name(s)\n",
			SuccessStyle.Render("Indexed"), st.Len(), len(st.Bases()))

		// Warnings always print here; verbose mode already printed them.
		if warnings := st.Warnings(); len(warnings) > 0 && !verbose {
			fmt.Fprintln(out)
			for _, w := range warnings {
				fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+w.String())
			}
		}

		return nil
	},
}
