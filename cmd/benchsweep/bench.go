// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boundcheck/benchsweep/internal/suite"
)

func newBenchCommand(app *App) *cobra.Command {
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Inspect the benchmark table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	benchCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured benchmarks and their artifact paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			s, err := cfg.Suite()
			if err != nil {
				return err
			}

			layout := suite.NewLayout(cfg.InstallPath())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCLASS\tACTIONS\tORIGINAL BITCODE")
			for _, spec := range s.Specs() {
				actions := "all"
				if len(spec.Actions) > 0 {
					names := make([]string, len(spec.Actions))
					for i, a := range spec.Actions {
						names[i] = a.String()
					}
					actions = strings.Join(names, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Name, spec.SizeClass, actions, layout.OriginalBitcode(spec))
			}
			return w.Flush()
		},
	})
	return benchCmd
}
