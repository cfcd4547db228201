// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"path/filepath"

	"github.com/boundcheck/benchsweep/internal/checkstats"
	"github.com/boundcheck/benchsweep/internal/suite"
)

// StatsCSVPath is the compile statistics file of the sweep.
func (d *Driver) StatsCSVPath() string {
	return filepath.Join(d.opts.OutputDir, StatsCSVName)
}

// CollectStats aggregates the runner's dump per stage and appends the totals
// to the compile statistics CSV. A missing or malformed dump fails the step.
func (d *Driver) CollectStats(spec suite.BenchmarkSpec) (BenchmarkStats, StepResult) {
	start := d.clock.Now()
	res := StepResult{Benchmark: spec.Name, Step: StepStats}
	finish := func(err error) StepResult {
		res.Err = err
		if err != nil {
			res.ExitCode = 1
			d.logger.Warn("step failed", "benchmark", spec.Name, "step", StepStats, "err", err)
		}
		res.Duration = d.clock.Now().Sub(start)
		return res
	}

	dump, err := d.DumpPath(spec)
	if err != nil {
		return BenchmarkStats{}, finish(err)
	}
	entries, err := checkstats.ParseFile(dump)
	if err != nil {
		return BenchmarkStats{}, finish(err)
	}
	stats := BenchmarkStats{Name: spec.Name, Stages: checkstats.Aggregate(entries)}
	for _, st := range stats.Stages {
		d.printf("%s: %s lb=%d ub=%d total=%d", spec.Name, st.Stage, st.Lower, st.Upper, st.Total)
	}
	if err := checkstats.AppendCSV(d.StatsCSVPath(), spec.Name, stats.Stages); err != nil {
		return stats, finish(err)
	}
	return stats, finish(nil)
}
