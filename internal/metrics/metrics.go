// SPDX-License-Identifier: MPL-2.0

// Package metrics exports a finished sweep as Prometheus text exposition,
// for pickup by the node exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/boundcheck/benchsweep/internal/sweep"
)

// Metrics holds the sweep collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	StepDuration   *prometheus.GaugeVec
	StepFailures   *prometheus.CounterVec
	BitcodeBytes   *prometheus.GaugeVec
	SizeRatio      *prometheus.GaugeVec
	TimingRatio    *prometheus.GaugeVec
	SweepDuration  prometheus.Gauge
	SweepAborted   prometheus.Gauge
	LastSweepStart prometheus.Gauge
}

// New creates and registers the sweep metrics.
func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.StepDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchsweep_step_duration_seconds",
			Help: "Wall time of the last run of each sweep step",
		},
		[]string{"benchmark", "step"},
	)
	m.StepFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchsweep_step_failures_total",
			Help: "Number of failed sweep steps",
		},
		[]string{"benchmark", "step"},
	)
	m.BitcodeBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchsweep_bitcode_bytes",
			Help: "Size of the original and transformed bitcode",
		},
		[]string{"benchmark", "variant"},
	)
	m.SizeRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchsweep_size_ratio_percent",
			Help: "Transformed bitcode size as a percentage of the original",
		},
		[]string{"benchmark"},
	)
	m.TimingRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "benchsweep_timing_ratio",
			Help: "Transformed mean run time divided by original mean run time",
		},
		[]string{"benchmark"},
	)
	m.SweepDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "benchsweep_sweep_duration_seconds",
		Help: "Wall time of the whole sweep",
	})
	m.SweepAborted = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "benchsweep_sweep_aborted",
		Help: "1 if the failure policy stopped the sweep early",
	})
	m.LastSweepStart = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "benchsweep_last_sweep_start_timestamp_seconds",
		Help: "Unix time the sweep started",
	})

	m.Registry.MustRegister(
		m.StepDuration, m.StepFailures, m.BitcodeBytes, m.SizeRatio,
		m.TimingRatio, m.SweepDuration, m.SweepAborted, m.LastSweepStart,
	)
	return m
}

// Observe records a report.
func (m *Metrics) Observe(report *sweep.Report) {
	steps := report.Steps
	if report.Build != nil {
		steps = append([]sweep.StepResult{*report.Build}, steps...)
	}
	for _, s := range steps {
		m.StepDuration.WithLabelValues(s.Benchmark, string(s.Step)).Set(s.Duration.Seconds())
		if s.Failed() {
			m.StepFailures.WithLabelValues(s.Benchmark, string(s.Step)).Inc()
		}
	}
	for _, rec := range report.Sizes {
		m.BitcodeBytes.WithLabelValues(rec.Name, "original").Set(float64(rec.OriginalSize))
		m.BitcodeBytes.WithLabelValues(rec.Name, "transformed").Set(float64(rec.TransformedSize))
		if ratio, ok := rec.Ratio(); ok {
			m.SizeRatio.WithLabelValues(rec.Name).Set(ratio)
		}
	}
	for _, tr := range report.Timings {
		m.TimingRatio.WithLabelValues(tr.Name).Set(tr.Comparison.Ratio)
	}

	m.SweepDuration.Set(report.Duration().Seconds())
	if report.Aborted {
		m.SweepAborted.Set(1)
	} else {
		m.SweepAborted.Set(0)
	}
	if !report.StartedAt.IsZero() {
		m.LastSweepStart.Set(float64(report.StartedAt.UnixNano()) / 1e9)
	}
}

// WriteTextfile writes the registry to path, replacing it atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
