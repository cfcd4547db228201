// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/boundcheck/benchsweep/internal/issue"
	"github.com/boundcheck/benchsweep/internal/runtime"
	"github.com/boundcheck/benchsweep/internal/suite"
)

// DumpPath returns the absolute dump destination for a benchmark.
func (d *Driver) DumpPath(spec suite.BenchmarkSpec) (string, error) {
	return filepath.Abs(filepath.Join(d.opts.OutputDir, spec.Name+".txt"))
}

// ProcessBenchmark runs the pass runner for one benchmark from the install
// directory. DUMP_DST is passed in the call's own environment. Whether the
// runner actually wrote the dump is not checked.
func (d *Driver) ProcessBenchmark(ctx context.Context, spec suite.BenchmarkSpec) StepResult {
	dst, err := d.DumpPath(spec)
	if err != nil {
		return StepResult{Benchmark: spec.Name, Step: StepProcess, ExitCode: 1, Err: err}
	}
	d.printf("%s = %s", DumpEnvVar, dst)

	if err := d.checkRunner(); err != nil {
		d.logger.Warn("runner script missing", "benchmark", spec.Name, "err", err)
		return StepResult{Benchmark: spec.Name, Step: StepProcess, ExitCode: 1, Err: err}
	}

	ec := d.execContext(runtime.NewExecutionContext(ctx)).
		Command(d.opts.RunnerScript, spec.Name).
		InDir(d.opts.InstallDir).
		WithEnv(DumpEnvVar, dst)

	d.logger.Info("processing benchmark", "name", spec.Name)
	return d.step(spec.Name, StepProcess, func() *runtime.Result { return d.native.Execute(ec) })
}

// checkRunner reports a missing runner script given as a path. Bare command
// names are left to PATH lookup.
func (d *Driver) checkRunner() error {
	script := d.opts.RunnerScript
	if !strings.ContainsRune(script, '/') && !strings.ContainsRune(script, filepath.Separator) {
		return nil
	}
	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.opts.InstallDir, path)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return issue.NewErrorContext().
			WithOperation("run pass runner").
			WithResource(path).
			WithIssue(issue.RunnerScriptNotFoundId).
			WithSuggestion("Rebuild without --skip-build so the install step places the script").
			Wrap(err).
			BuildError()
	}
	return nil
}
