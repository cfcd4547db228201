// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boundcheck/benchsweep/internal/checkstats"
)

func newStatsCommand(_ *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <dump>",
		Short: "Summarize a check count dump per stage",
		Long: `Summarize a check count dump written by the pass to $DUMP_DST.

Each stage row sums the lower, upper and total bound checks of every
function; the last column is the reduction relative to the first stage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := checkstats.ParseFile(args[0])
			if err != nil {
				return err
			}
			totals := checkstats.Aggregate(entries)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tFUNCTIONS\tLB\tUB\tTOTAL\tREDUCTION")
			for _, t := range totals {
				reduction := "-"
				if r, ok := checkstats.Reduction(totals[0], t); ok {
					reduction = fmt.Sprintf("%.1f%%", r)
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n", t.Stage, t.Functions, t.Lower, t.Upper, t.Total, reduction)
			}
			return w.Flush()
		},
	}
}
