// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/boundcheck/benchsweep/internal/history"
	"github.com/boundcheck/benchsweep/internal/issue"
)

func newHistoryCommand(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sweeps recorded in history.path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return issue.NewErrorContext().
					WithOperation("read sweep history").
					WithIssue(issue.HistoryUnavailableId).
					WithSuggestion("Set history.path in your config to record sweeps").
					Wrap(fmt.Errorf("history is not enabled")).
					BuildError()
			}
			if limit <= 0 {
				limit = cfg.History.Limit
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return historyError(cfg.History.Path, err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return historyError(cfg.History.Path, err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("(no sweeps recorded)"))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tPRESET\tSTEPS\tFAILED\tSIZE\tDURATION")
			for _, r := range runs {
				size := "-"
				if ratio, ok := r.Ratio(); ok {
					size = fmt.Sprintf("%.2f%% of %d bytes", ratio, r.OriginalTotal)
				}
				preset := r.Preset
				if r.Aborted {
					preset += " (aborted)"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), preset, r.Steps, r.Failures, size,
					r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of runs to show (default history.limit)")
	return cmd
}
