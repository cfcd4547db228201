// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/boundcheck/benchsweep/internal/config"
	"github.com/boundcheck/benchsweep/internal/history"
	"github.com/boundcheck/benchsweep/internal/issue"
	"github.com/boundcheck/benchsweep/internal/metrics"
	"github.com/boundcheck/benchsweep/internal/suite"
	"github.com/boundcheck/benchsweep/internal/sweep"
)

type sweepFlags struct {
	skipBuild bool
	strict    bool
	only      []string
	exclude   []string
}

func newSweepCommand(app *App) *cobra.Command {
	var flags sweepFlags
	cmd := &cobra.Command{
		Use:   "sweep <preset>",
		Short: "Run a benchmark sweep",
		Long: `Run a benchmark sweep.

A preset names the output directory and the actions run per benchmark
(process, stats, size, timing). The output directory is emptied first and
the toolchain is built once before any benchmark runs.

` + SubtitleStyle.Render("Exit codes:") + `
  0  sweep finished (step failures are listed in the summary)
  1  build failed, a bitcode artifact was missing, or the sweep was interrupted
  2  --strict and at least one step failed`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			return cfg.PresetNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, app, args[0], flags)
		},
	}
	cmd.Flags().BoolVar(&flags.skipBuild, "skip-build", false, "reuse the existing install tree")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit with status 2 when any step fails")
	cmd.Flags().StringSliceVar(&flags.only, "only", nil, "run only these benchmarks (comma separated)")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "skip these benchmarks (comma separated)")
	return cmd
}

func runSweep(cmd *cobra.Command, app *App, presetName string, flags sweepFlags) error {
	ctx := cmd.Context()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, _, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}
	preset, err := cfg.Preset(presetName)
	if err != nil {
		return err
	}
	actions, err := preset.ParsedActions()
	if err != nil {
		return err
	}
	benchmarks, err := selectBenchmarks(cfg, flags)
	if err != nil {
		return err
	}
	opts, err := sweep.OptionsFromConfig(cfg, preset)
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(stderr, log.Options{Prefix: "sweep"})
	if app.verbose {
		logger.SetLevel(log.DebugLevel)
	}
	driver := sweep.New(opts, sweep.WithStdout(stdout), sweep.WithStderr(stderr), sweep.WithLogger(logger))

	report, runErr := driver.Run(ctx, sweep.Plan{
		Preset:    strings.ToLower(presetName),
		Suite:     benchmarks,
		Actions:   actions,
		SkipBuild: flags.skipBuild,
	})

	if !isBuildFailure(runErr) {
		renderSummary(stdout, report)
	}
	recordHistory(ctx, cfg, report, logger)
	writeMetrics(cfg, report, logger)

	switch {
	case runErr != nil:
		return &ExitError{Code: ExitFailure, Err: runErr}
	case flags.strict && report.Failed():
		return &ExitError{Code: ExitStepFailures}
	}
	return nil
}

func selectBenchmarks(cfg *config.Config, flags sweepFlags) (*suite.Suite, error) {
	s, err := cfg.Suite()
	if err != nil {
		return nil, err
	}
	if len(flags.only) > 0 {
		if s, err = s.Filter(flags.only); err != nil {
			return nil, err
		}
	}
	if len(flags.exclude) > 0 {
		if s, err = s.Exclude(flags.exclude); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func renderSummary(w io.Writer, report *sweep.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("Sweep summary")+" "+SubtitleStyle.Render(fmt.Sprintf("(%s, output %s)", report.Preset, report.OutputDir)))

	failures := report.Failures()
	for _, name := range report.Benchmarks() {
		var failed []string
		for _, s := range report.StepsFor(name) {
			if s.Failed() {
				failed = append(failed, fmt.Sprintf("%s: %v", s.Step, s.Err))
			}
		}
		if len(failed) == 0 {
			fmt.Fprintf(w, "  %s %s\n", successIcon, name)
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", failIcon, name)
		for _, f := range failed {
			fmt.Fprintf(w, "      %s\n", ErrorStyle.Render(f))
		}
	}
	for _, name := range report.NotRun {
		fmt.Fprintf(w, "  %s %s %s\n", skipIcon, name, SubtitleStyle.Render("(not run)"))
	}

	for _, t := range report.Timings {
		fmt.Fprintf(w, "  %s timing %s\n", CmdStyle.Render(t.Name), t.Comparison)
	}

	status := SuccessStyle.Render(fmt.Sprintf("%d benchmarks, %d steps, %d failed", len(report.Benchmarks()), len(report.Steps), len(failures)))
	if len(failures) > 0 {
		status = WarningStyle.Render(fmt.Sprintf("%d benchmarks, %d steps, %d failed", len(report.Benchmarks()), len(report.Steps), len(failures)))
	}
	fmt.Fprintln(w, status)
	if report.Aborted {
		fmt.Fprintln(w, ErrorStyle.Render("Sweep aborted after the first failing benchmark (failure_policy: abort)"))
	}
}

func recordHistory(ctx context.Context, cfg *config.Config, report *sweep.Report, logger *log.Logger) {
	if cfg.History.Path == "" {
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn("history unavailable", "err", historyError(cfg.History.Path, err))
		return
	}
	defer store.Close()
	id, err := store.Record(context.WithoutCancel(ctx), report)
	if err != nil {
		logger.Warn("history unavailable", "err", historyError(cfg.History.Path, err))
		return
	}
	logger.Debug("recorded run", "id", id, "path", cfg.History.Path)
}

func historyError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("record sweep history").
		WithResource(path).
		WithIssue(issue.HistoryUnavailableId).
		Wrap(err).
		BuildError()
}

func writeMetrics(cfg *config.Config, report *sweep.Report, logger *log.Logger) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	m := metrics.New()
	m.Observe(report)
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn("metrics not written", "err", err)
		return
	}
	logger.Debug("wrote metrics", "path", cfg.Metrics.Textfile)
}

// isBuildFailure reports whether err came from the toolchain build.
func isBuildFailure(err error) bool {
	return errors.Is(err, sweep.ErrBuildFailed)
}
