// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/boundcheck/benchsweep/internal/config"
	"github.com/boundcheck/benchsweep/internal/suite"
	"github.com/boundcheck/benchsweep/internal/timing"
)

// Plan selects what one sweep runs.
type Plan struct {
	Preset    string
	Suite     *suite.Suite
	Actions   []suite.Action
	SkipBuild bool
}

// Run performs the sweep: reset the output directory, build once, then walk
// the suite in order running each planned action the benchmark supports.
//
// The returned Report is never nil. A non-nil error means the sweep stopped
// early: the output directory could not be reset, the build failed, a size
// artifact was missing, or ctx was canceled. Ordinary step failures are
// recorded in the Report and, under the abort policy, stop the sweep after
// the failing benchmark without an error.
func (d *Driver) Run(ctx context.Context, plan Plan) (*Report, error) {
	report := &Report{
		Preset:       plan.Preset,
		OutputDir:    d.opts.OutputDir,
		StartedAt:    d.clock.Now(),
		BuildSkipped: plan.SkipBuild,
	}
	defer func() { report.FinishedAt = d.clock.Now() }()

	var specs []suite.BenchmarkSpec
	if plan.Suite != nil {
		specs = plan.Suite.Specs()
	}
	notRun := func(from int) {
		for _, s := range specs[from:] {
			report.NotRun = append(report.NotRun, s.Name)
		}
	}

	if err := ctx.Err(); err != nil {
		notRun(0)
		return report, fmt.Errorf("sweep interrupted: %w", err)
	}
	if err := PrepareOutputDir(d.opts.OutputDir); err != nil {
		notRun(0)
		return report, err
	}

	if !plan.SkipBuild {
		res, err := d.Build(ctx)
		report.Build = &res
		if err != nil {
			notRun(0)
			return report, err
		}
	}

	d.logger.Info("starting sweep", "preset", plan.Preset, "benchmarks", len(specs), "output", d.opts.OutputDir)
	for i, spec := range specs {
		failed, err := d.runBenchmark(ctx, spec, plan.Actions, report)
		if err != nil {
			notRun(i + 1)
			return report, err
		}
		if failed && d.opts.FailurePolicy == config.FailurePolicyAbort {
			d.logger.Error("aborting sweep", "benchmark", spec.Name)
			report.Aborted = true
			notRun(i + 1)
			break
		}
	}
	return report, nil
}

// runBenchmark reports whether any step failed. Its error is fatal to the
// whole sweep.
func (d *Driver) runBenchmark(ctx context.Context, spec suite.BenchmarkSpec, actions []suite.Action, report *Report) (bool, error) {
	failed := false
	record := func(res StepResult) {
		report.add(res)
		if res.Failed() {
			failed = true
		}
	}

	for _, action := range actions {
		if !spec.Supports(action) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return failed, fmt.Errorf("sweep interrupted at %s: %w", spec.Name, err)
		}

		switch action {
		case suite.ActionProcess:
			record(d.ProcessBenchmark(ctx, spec))
		case suite.ActionStats:
			stats, res := d.CollectStats(spec)
			record(res)
			if !res.Failed() {
				report.Stats = append(report.Stats, stats)
			}
		case suite.ActionSize:
			start := d.clock.Now()
			rec, err := d.CompareSizes(spec)
			res := StepResult{Benchmark: spec.Name, Step: StepSize, Err: err, Duration: d.clock.Now().Sub(start)}
			if err != nil {
				res.ExitCode = 1
				record(res)
				return true, err
			}
			record(res)
			report.Sizes = append(report.Sizes, rec)
		case suite.ActionTiming:
			results := d.LinkAndRun(ctx, spec)
			for _, res := range results {
				record(res)
			}
			if cmp, ok := d.compareTimings(spec, results); ok {
				report.Timings = append(report.Timings, TimingRecord{Name: spec.Name, Comparison: cmp})
			}
		}
	}
	return failed, nil
}

func (d *Driver) compareTimings(spec suite.BenchmarkSpec, results []StepResult) (timing.Comparison, bool) {
	timed := 0
	for _, r := range results {
		if (r.Step == StepTimeOriginal || r.Step == StepTimeTransformed) && !r.Failed() {
			timed++
		}
	}
	if timed != 2 {
		return timing.Comparison{}, false
	}

	orig, err := timing.ReadFile(d.TimingCSVPath(spec, "original"))
	if err != nil {
		slog.Debug("timing results unreadable", "benchmark", spec.Name, "err", err)
		return timing.Comparison{}, false
	}
	trans, err := timing.ReadFile(d.TimingCSVPath(spec, "transformed"))
	if err != nil {
		slog.Debug("timing results unreadable", "benchmark", spec.Name, "err", err)
		return timing.Comparison{}, false
	}
	cmp, err := timing.Compare(orig, trans)
	if err != nil {
		slog.Debug("timing comparison failed", "benchmark", spec.Name, "err", err)
		return timing.Comparison{}, false
	}
	d.printf("Timing ratio: %s", cmp)
	return cmp, true
}
