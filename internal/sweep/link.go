// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/boundcheck/benchsweep/internal/runtime"
	"github.com/boundcheck/benchsweep/internal/suite"
)

type variant struct {
	link, time Step
	suffix     string
	linkArgs   []string
	executable string
}

// TimingCSVPath is where the timing tool writes one variant's results.
func (d *Driver) TimingCSVPath(spec suite.BenchmarkSpec, suffix string) string {
	return filepath.Join(d.opts.OutputDir, spec.Name+"-"+suffix+".csv")
}

// LinkAndRun links the transformed bitcode against the stub object, compiles
// the original bitcode, and times both executables. A variant whose link
// failed is not timed.
func (d *Driver) LinkAndRun(ctx context.Context, spec suite.BenchmarkSpec) []StepResult {
	transExe := d.layout.TransformedExecutable(spec)
	origExe := d.layout.OriginalExecutable(spec)
	variants := []variant{
		{
			link: StepLinkTransformed, time: StepTimeTransformed, suffix: "transformed",
			linkArgs:   []string{d.opts.StubObject, d.layout.TransformedBitcode(spec), "-o", transExe},
			executable: transExe,
		},
		{
			link: StepLinkOriginal, time: StepTimeOriginal, suffix: "original",
			linkArgs:   []string{d.layout.OriginalBitcode(spec), "-o", origExe},
			executable: origExe,
		},
	}

	base := d.execContext(runtime.NewExecutionContext(ctx))
	linked := make(map[Step]bool, len(variants))
	var results []StepResult
	for _, v := range variants {
		ec := base.Command(d.opts.LinkDriver, v.linkArgs...)
		res := d.step(spec.Name, v.link, func() *runtime.Result { return d.native.Execute(ec) })
		linked[v.link] = !res.Failed()
		results = append(results, res)
	}

	// Timing runs original first, then transformed.
	for i := len(variants) - 1; i >= 0; i-- {
		v := variants[i]
		if !linked[v.link] {
			d.logger.Warn("skipping timing", "benchmark", spec.Name, "variant", v.suffix)
			continue
		}
		ec := base.Command(d.opts.TimingTool,
			"-w", strconv.Itoa(d.opts.Warmup),
			commandPath(v.executable),
			"--export-csv", d.TimingCSVPath(spec, v.suffix))
		d.logger.Info("timing executable", "benchmark", spec.Name, "variant", v.suffix)
		results = append(results, d.step(spec.Name, v.time, func() *runtime.Result { return d.native.Execute(ec) }))
	}
	return results
}

// commandPath makes a relative executable path runnable by a shell-like tool.
func commandPath(p string) string {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") {
		return p
	}
	return "./" + filepath.ToSlash(p)
}
