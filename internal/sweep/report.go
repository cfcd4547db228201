// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"fmt"
	"time"

	"github.com/boundcheck/benchsweep/internal/checkstats"
	"github.com/boundcheck/benchsweep/internal/runtime"
	"github.com/boundcheck/benchsweep/internal/timing"
)

const (
	StepBuild           Step = "build"
	StepProcess         Step = "process"
	StepStats           Step = "stats"
	StepSize            Step = "size"
	StepLinkOriginal    Step = "link-original"
	StepLinkTransformed Step = "link-transformed"
	StepTimeOriginal    Step = "time-original"
	StepTimeTransformed Step = "time-transformed"
)

type (
	// Step names one unit of subprocess or file work.
	Step string

	// StepResult is the inspected outcome of one step.
	StepResult struct {
		Benchmark string
		Step      Step
		ExitCode  runtime.ExitCode
		Err       error
		Duration  time.Duration
	}

	// SizeRecord is one size CSV row.
	SizeRecord struct {
		Name            string
		OriginalSize    int64
		TransformedSize int64
	}

	// BenchmarkStats are the per-stage check totals of one benchmark.
	BenchmarkStats struct {
		Name   string
		Stages []checkstats.StageTotal
	}

	// TimingRecord holds the timing comparison of one benchmark.
	TimingRecord struct {
		Name       string
		Comparison timing.Comparison
	}

	// Report aggregates one sweep.
	Report struct {
		Preset       string
		OutputDir    string
		StartedAt    time.Time
		FinishedAt   time.Time
		BuildSkipped bool
		Build        *StepResult
		Steps        []StepResult
		Sizes        []SizeRecord
		Stats        []BenchmarkStats
		Timings      []TimingRecord
		// Aborted is set when the abort policy stopped the sweep early.
		Aborted bool
		// NotRun lists benchmarks never attempted because of an abort,
		// a fatal error or cancellation.
		NotRun []string
	}
)

// Failed reports whether the step did not succeed.
func (r StepResult) Failed() bool {
	return r.Err != nil
}

// Ratio is transformed/original×100, or false for an empty original.
func (s SizeRecord) Ratio() (float64, bool) {
	return SizeRatio(s.OriginalSize, s.TransformedSize)
}

// SizeRatio returns transformed/original×100.
func SizeRatio(original, transformed int64) (float64, bool) {
	if original <= 0 {
		return 0, false
	}
	return float64(transformed) / float64(original) * 100, true
}

// FormatPercent renders a ratio with two decimals (1000, 250 → "25.00").
func FormatPercent(original, transformed int64) string {
	ratio, ok := SizeRatio(original, transformed)
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", ratio)
}

func (r *Report) add(res StepResult) {
	r.Steps = append(r.Steps, res)
}

// Failed reports whether the build or any benchmark step failed.
func (r *Report) Failed() bool {
	if r.Build != nil && r.Build.Failed() {
		return true
	}
	return len(r.Failures()) > 0
}

// Failures returns failing benchmark steps in execution order.
func (r *Report) Failures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Failed() {
			out = append(out, s)
		}
	}
	return out
}

// StepsFor returns the steps recorded for one benchmark.
func (r *Report) StepsFor(name string) []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Benchmark == name {
			out = append(out, s)
		}
	}
	return out
}

// Benchmarks returns benchmark names in the order they were first attempted.
func (r *Report) Benchmarks() []string {
	var names []string
	seen := make(map[string]bool)
	for _, s := range r.Steps {
		if !seen[s.Benchmark] {
			seen[s.Benchmark] = true
			names = append(names, s.Benchmark)
		}
	}
	return names
}

// Duration is the wall time of the sweep.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
