// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/boundcheck/benchsweep/internal/config"
	"github.com/boundcheck/benchsweep/internal/runtime"
	"github.com/boundcheck/benchsweep/internal/suite"
)

const (
	// DumpEnvVar names the variable telling the runner where to write its dump.
	DumpEnvVar = "DUMP_DST"
	// StatsCSVName is the compile statistics file inside the output directory.
	StatsCSVName = "compile_stats.csv"
)

type (
	// Options configures a Driver. Relative paths resolve against the
	// driver's working directory.
	Options struct {
		SourceDir     string
		InstallDir    string
		OutputDir     string
		SizeCSV       string
		BuildScript   string
		RunnerScript  string
		LinkDriver    string
		StubObject    string
		TimingTool    string
		Warmup        int
		FailurePolicy config.FailurePolicy
		// Env is layered over the host environment for every subprocess.
		Env map[string]string
	}

	// Clock supplies step timestamps.
	Clock interface {
		Now() time.Time
	}

	// Driver runs the sweep steps.
	Driver struct {
		opts    Options
		layout  suite.Layout
		stdout  io.Writer
		stderr  io.Writer
		logger  *log.Logger
		clock   Clock
		native  runtime.Runtime
		virtual runtime.Runtime
	}

	// Option customizes a Driver.
	Option func(*Driver)

	systemClock struct{}
)

func (systemClock) Now() time.Time { return time.Now() }

// WithStdout sets where required progress lines and subprocess output go.
func WithStdout(w io.Writer) Option {
	return func(d *Driver) { d.stdout = w }
}

// WithStderr sets where subprocess errors and, unless WithLogger is given,
// log records go.
func WithStderr(w io.Writer) Option {
	return func(d *Driver) { d.stderr = w }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithRuntimes replaces the process runtime and the shell runtime.
func WithRuntimes(native, virtual runtime.Runtime) Option {
	return func(d *Driver) {
		d.native = native
		d.virtual = virtual
	}
}

// New returns a Driver for opts.
func New(opts Options, options ...Option) *Driver {
	if opts.Env == nil {
		opts.Env = make(map[string]string)
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = config.FailurePolicyContinue
	}
	d := &Driver{
		opts:    opts,
		layout:  suite.NewLayout(opts.InstallDir),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		clock:   systemClock{},
		native:  runtime.NewNativeRuntime(),
		virtual: runtime.NewVirtualRuntime(),
	}
	for _, opt := range options {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.NewWithOptions(d.stderr, log.Options{Prefix: "sweep"})
	}
	return d
}

// Options returns the driver's configuration.
func (d *Driver) Options() Options {
	return d.opts
}

// OptionsFromConfig derives driver options for one preset. The install tree
// and stub object are resolved against the source directory so the driver
// reads what the build installed. The env file, if configured, is read
// relative to the current directory.
func OptionsFromConfig(cfg *config.Config, preset config.SweepPreset) (Options, error) {
	script, err := cfg.BuildScript()
	if err != nil {
		return Options{}, err
	}
	env := make(map[string]string)
	if cfg.EnvFile != "" {
		if err := runtime.LoadEnvFile(env, cfg.EnvFile, "."); err != nil {
			return Options{}, err
		}
	}
	return Options{
		SourceDir:     cfg.SourceDir,
		InstallDir:    cfg.InstallPath(),
		OutputDir:     preset.OutputDir,
		SizeCSV:       preset.SizeCSVPath(),
		BuildScript:   script,
		RunnerScript:  cfg.Runner.Script,
		LinkDriver:    cfg.Link.Driver,
		StubObject:    cfg.StubObjectPath(),
		TimingTool:    cfg.Timing.Tool,
		Warmup:        cfg.Timing.Warmup,
		FailurePolicy: cfg.FailurePolicy,
		Env:           env,
	}, nil
}

// printf writes one required progress line.
func (d *Driver) printf(format string, args ...any) {
	fmt.Fprintf(d.stdout, format+"\n", args...)
}

func (d *Driver) execContext(base *runtime.ExecutionContext) *runtime.ExecutionContext {
	base.Stdout = d.stdout
	base.Stderr = d.stderr
	base.Stdin = nil
	for k, v := range d.opts.Env {
		base.Env[k] = v
	}
	return base
}

// step runs fn and times it with the driver clock.
func (d *Driver) step(benchmark string, step Step, fn func() *runtime.Result) StepResult {
	start := d.clock.Now()
	res := fn()
	out := StepResult{
		Benchmark: benchmark,
		Step:      step,
		ExitCode:  res.ExitCode,
		Err:       res.Err(),
		Duration:  d.clock.Now().Sub(start),
	}
	if out.Err != nil {
		d.logger.Warn("step failed", "benchmark", benchmark, "step", step, "err", out.Err)
	} else {
		d.logger.Debug("step finished", "benchmark", benchmark, "step", step, "duration", out.Duration)
	}
	return out
}
