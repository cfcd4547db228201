// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/boundcheck/benchsweep/internal/config"
	"github.com/boundcheck/benchsweep/internal/issue"
)

func newIssueCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "issue [id]",
		Short: "Explain a known problem and how to fix it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, i := range issue.Values() {
					fmt.Fprintf(out, "%s  %s\n", CmdStyle.Render(strconv.Itoa(int(i.Id()))), i.Title())
				}
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("issue id must be a number, got %q", args[0])
			}
			i := issue.Get(issue.Id(n))
			if i == nil {
				return fmt.Errorf("no issue with id %d (run 'benchsweep issue' for the list)", n)
			}

			style := config.DefaultConfig().UI.GlamourStyle()
			if cfg, _, err := app.loadConfig(cmd.Context()); err == nil {
				style = cfg.UI.GlamourStyle()
			}
			rendered, err := i.Render(style)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
}
