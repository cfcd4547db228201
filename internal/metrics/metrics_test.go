// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/boundcheck/benchsweep/internal/sweep"
	"github.com/boundcheck/benchsweep/internal/timing"
)

func sampleReport() *sweep.Report {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &sweep.Report{
		Preset:     "baseline",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Minute),
		Build:      &sweep.StepResult{Step: sweep.StepBuild, Duration: 40 * time.Second},
		Steps: []sweep.StepResult{
			{Benchmark: "is", Step: sweep.StepProcess, Duration: 3 * time.Second},
			{Benchmark: "is", Step: sweep.StepSize, Duration: time.Millisecond},
			{Benchmark: "bfs", Step: sweep.StepProcess, ExitCode: 1, Err: errors.New("exit status 1"), Duration: time.Second},
		},
		Sizes:   []sweep.SizeRecord{{Name: "is", OriginalSize: 1000, TransformedSize: 250}},
		Timings: []sweep.TimingRecord{{Name: "is", Comparison: timing.Comparison{Ratio: 1.25}}},
	}
}

func TestObserve(t *testing.T) {
	m := New()
	m.Observe(sampleReport())

	if got := promtest.ToFloat64(m.StepDuration.WithLabelValues("is", "process")); got != 3 {
		t.Errorf("is/process duration = %v, want 3", got)
	}
	if got := promtest.ToFloat64(m.StepDuration.WithLabelValues("", "build")); got != 40 {
		t.Errorf("build duration = %v, want 40", got)
	}
	if got := promtest.ToFloat64(m.StepFailures.WithLabelValues("bfs", "process")); got != 1 {
		t.Errorf("bfs failures = %v, want 1", got)
	}
	if got := promtest.CollectAndCount(m.StepFailures); got != 1 {
		t.Errorf("failure series = %d, want 1", got)
	}
	if got := promtest.ToFloat64(m.BitcodeBytes.WithLabelValues("is", "transformed")); got != 250 {
		t.Errorf("transformed bytes = %v, want 250", got)
	}
	if got := promtest.ToFloat64(m.SizeRatio.WithLabelValues("is")); got != 25 {
		t.Errorf("size ratio = %v, want 25", got)
	}
	if got := promtest.ToFloat64(m.TimingRatio.WithLabelValues("is")); got != 1.25 {
		t.Errorf("timing ratio = %v, want 1.25", got)
	}
	if got := promtest.ToFloat64(m.SweepDuration); got != 120 {
		t.Errorf("sweep duration = %v, want 120", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(sampleReport())
	path := filepath.Join(t.TempDir(), "textfile", "benchsweep.prom")

	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`benchsweep_bitcode_bytes{benchmark="is",variant="original"} 1000`,
		`benchsweep_step_failures_total{benchmark="bfs",step="process"} 1`,
		"# TYPE benchsweep_step_duration_seconds gauge",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
