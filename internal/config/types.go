// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/boundcheck/benchsweep/internal/suite"
)

const (
	// FailurePolicyContinue records a failing step and moves on to the next benchmark.
	FailurePolicyContinue FailurePolicy = "continue"
	// FailurePolicyAbort stops the sweep after the first benchmark with a failing step.
	FailurePolicyAbort FailurePolicy = "abort"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// GeneratorNinja is the default CMake generator.
	GeneratorNinja = "Ninja"
	// GeneratorMake selects "Unix Makefiles".
	GeneratorMake = "Unix Makefiles"

	// sizeCSVSuffix names the default size CSV inside a sweep's output directory.
	sizeCSVSuffix = "_size.csv"
)

var (
	// ErrInvalidFailurePolicy is returned when a FailurePolicy value is not recognized.
	ErrInvalidFailurePolicy = errors.New("invalid failure policy")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidBuildType is returned when a CMake build type is not recognized.
	ErrInvalidBuildType = errors.New("invalid build type")
	// ErrInvalidSweepPreset is the sentinel error wrapped by InvalidSweepPresetError.
	ErrInvalidSweepPreset = errors.New("invalid sweep preset")
	// ErrUnknownPreset is returned when a sweep preset name is not configured.
	ErrUnknownPreset = errors.New("unknown sweep preset")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	buildTypes = []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}
)

type (
	// FailurePolicy decides what a sweep does after a failing step.
	FailurePolicy string

	// InvalidFailurePolicyError wraps ErrInvalidFailurePolicy.
	InvalidFailurePolicyError struct {
		Value FailurePolicy
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError wraps ErrInvalidColorScheme.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidSweepPresetError reports every problem found in one preset.
	InvalidSweepPresetError struct {
		Name        string
		FieldErrors []error
	}

	// InvalidConfigError aggregates field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// BuildConfig describes the configure, build and install of the pass toolchain.
	// InstallPrefix defaults to "./" + Config.InstallDir when empty; Script
	// replaces the generated command sequence verbatim when set.
	BuildConfig struct {
		CCompiler     string   `json:"c_compiler" mapstructure:"c_compiler" toml:"c_compiler"`
		CXXCompiler   string   `json:"cxx_compiler" mapstructure:"cxx_compiler" toml:"cxx_compiler"`
		BuildType     string   `json:"build_type" mapstructure:"build_type" toml:"build_type"`
		Generator     string   `json:"generator" mapstructure:"generator" toml:"generator"`
		BuildDir      string   `json:"build_dir" mapstructure:"build_dir" toml:"build_dir"`
		InstallPrefix string   `json:"install_prefix" mapstructure:"install_prefix" toml:"install_prefix"`
		Verbose       bool     `json:"verbose" mapstructure:"verbose" toml:"verbose"`
		ExtraFlags    []string `json:"extra_flags" mapstructure:"extra_flags" toml:"extra_flags"`
		Script        string   `json:"script" mapstructure:"script" toml:"script"`
	}

	// RunnerConfig names the per-benchmark pass runner.
	RunnerConfig struct {
		// Script is executed from the install directory with the benchmark name as its only argument.
		Script string `json:"script" mapstructure:"script" toml:"script"`
	}

	// LinkConfig configures producing executables from bitcode.
	LinkConfig struct {
		Driver     string `json:"driver" mapstructure:"driver" toml:"driver"`
		StubObject string `json:"stub_object" mapstructure:"stub_object" toml:"stub_object"`
	}

	// TimingConfig configures the external timing tool.
	TimingConfig struct {
		Tool   string `json:"tool" mapstructure:"tool" toml:"tool"`
		Warmup int    `json:"warmup" mapstructure:"warmup" toml:"warmup"`
	}

	// BenchmarkEntry is one row of the benchmark table.
	BenchmarkEntry struct {
		Name      string          `json:"name" mapstructure:"name" toml:"name"`
		SizeClass suite.SizeClass `json:"size_class" mapstructure:"size_class" toml:"size_class"`
		Actions   []string        `json:"actions,omitempty" mapstructure:"actions" toml:"actions,omitempty"`
	}

	// SweepPreset is a named combination of output directory and actions.
	// SizeCSV is the size record file name inside OutputDir.
	SweepPreset struct {
		OutputDir string   `json:"output_dir" mapstructure:"output_dir" toml:"output_dir"`
		Actions   []string `json:"actions" mapstructure:"actions" toml:"actions"`
		SizeCSV   string   `json:"size_csv,omitempty" mapstructure:"size_csv" toml:"size_csv,omitempty"`
	}

	// HistoryConfig enables the sqlite run history when Path is set.
	HistoryConfig struct {
		Path  string `json:"path" mapstructure:"path" toml:"path"`
		Limit int    `json:"limit" mapstructure:"limit" toml:"limit"`
	}

	// MetricsConfig enables the Prometheus textfile export when Textfile is set.
	MetricsConfig struct {
		Textfile string `json:"textfile" mapstructure:"textfile" toml:"textfile"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose" toml:"verbose"`
	}

	// Config holds the application configuration. Relative InstallDir,
	// Build.InstallPrefix and Link.StubObject paths name locations inside
	// SourceDir, where the build runs.
	Config struct {
		SourceDir     string                 `json:"source_dir" mapstructure:"source_dir" toml:"source_dir"`
		InstallDir    string                 `json:"install_dir" mapstructure:"install_dir" toml:"install_dir"`
		EnvFile       string                 `json:"env_file" mapstructure:"env_file" toml:"env_file"`
		FailurePolicy FailurePolicy          `json:"failure_policy" mapstructure:"failure_policy" toml:"failure_policy"`
		Build         BuildConfig            `json:"build" mapstructure:"build" toml:"build"`
		Runner        RunnerConfig           `json:"runner" mapstructure:"runner" toml:"runner"`
		Link          LinkConfig             `json:"link" mapstructure:"link" toml:"link"`
		Timing        TimingConfig           `json:"timing" mapstructure:"timing" toml:"timing"`
		Benchmarks    []BenchmarkEntry       `json:"benchmarks" mapstructure:"benchmarks" toml:"benchmarks"`
		Sweeps        map[string]SweepPreset `json:"sweeps" mapstructure:"sweeps" toml:"sweeps"`
		History       HistoryConfig          `json:"history" mapstructure:"history" toml:"history"`
		Metrics       MetricsConfig          `json:"metrics" mapstructure:"metrics" toml:"metrics"`
		UI            UIConfig               `json:"ui" mapstructure:"ui" toml:"ui"`
	}
)

// String returns the string representation of the FailurePolicy.
func (p FailurePolicy) String() string { return string(p) }

// IsValid returns whether the FailurePolicy is one of the defined policies.
func (p FailurePolicy) IsValid() (bool, []error) {
	switch p {
	case FailurePolicyContinue, FailurePolicyAbort:
		return true, nil
	default:
		return false, []error{&InvalidFailurePolicyError{Value: p}}
	}
}

// Error implements the error interface.
func (e *InvalidFailurePolicyError) Error() string {
	return fmt.Sprintf("invalid failure policy %q (valid: continue, abort)", e.Value)
}

// Unwrap returns ErrInvalidFailurePolicy for errors.Is() compatibility.
func (e *InvalidFailurePolicyError) Unwrap() error { return ErrInvalidFailurePolicy }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// GlamourStyle maps the color scheme to a glamour standard style name.
func (c UIConfig) GlamourStyle() string {
	switch c.ColorScheme {
	case ColorSchemeDark:
		return "dark"
	case ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

// IsValid checks the build type.
func (b BuildConfig) IsValid() (bool, []error) {
	if b.Script != "" {
		return true, nil
	}
	for _, bt := range buildTypes {
		if b.BuildType == bt {
			return true, nil
		}
	}
	return false, []error{fmt.Errorf("%w %q (valid: %s)", ErrInvalidBuildType, b.BuildType, strings.Join(buildTypes, ", "))}
}

// Error implements the error interface.
func (e *InvalidSweepPresetError) Error() string {
	return fmt.Sprintf("sweep preset %q: %s", e.Name, errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidSweepPreset for errors.Is() compatibility.
func (e *InvalidSweepPresetError) Unwrap() error { return ErrInvalidSweepPreset }

// IsValid checks the output directory and action names.
func (p SweepPreset) IsValid(name string) (bool, []error) {
	var errs []error
	if strings.TrimSpace(p.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if len(p.Actions) == 0 {
		errs = append(errs, errors.New("at least one action is required"))
	} else if _, err := suite.ParseActions(p.Actions); err != nil {
		errs = append(errs, err)
	}
	if p.SizeCSV != "" && filepath.Base(p.SizeCSV) != p.SizeCSV {
		errs = append(errs, fmt.Errorf("size_csv %q must be a file name, not a path", p.SizeCSV))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSweepPresetError{Name: name, FieldErrors: errs}}
	}
	return true, nil
}

// SizeCSVPath returns where size records for this preset are appended.
// The file lives inside the output directory so clearing the directory also
// clears records from previous sweeps.
func (p SweepPreset) SizeCSVPath() string {
	name := p.SizeCSV
	if name == "" {
		name = filepath.Base(filepath.Clean(p.OutputDir)) + sizeCSVSuffix
	}
	return filepath.Join(p.OutputDir, name)
}

// ParsedActions returns the preset's actions in execution order.
func (p SweepPreset) ParsedActions() ([]suite.Action, error) {
	return suite.ParseActions(p.Actions)
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.InstallDir) == "" {
		errs = append(errs, errors.New("install_dir must not be empty"))
	}
	if valid, fieldErrs := c.FailurePolicy.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Build.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if strings.TrimSpace(c.Runner.Script) == "" {
		errs = append(errs, errors.New("runner.script must not be empty"))
	}
	if c.Timing.Warmup < 0 {
		errs = append(errs, fmt.Errorf("timing.warmup must be >= 0, got %d", c.Timing.Warmup))
	}
	if _, err := c.Suite(); err != nil {
		errs = append(errs, err)
	}
	for _, name := range c.PresetNames() {
		if valid, fieldErrs := c.Sweeps[name].IsValid(name); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Validate is IsValid folded into a single error.
func (c Config) Validate() error {
	if valid, errs := c.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Suite builds the benchmark table.
func (c Config) Suite() (*suite.Suite, error) {
	specs := make([]suite.BenchmarkSpec, 0, len(c.Benchmarks))
	for _, b := range c.Benchmarks {
		actions, err := suite.ParseActions(b.Actions)
		if err != nil {
			return nil, fmt.Errorf("benchmark %q: %w", b.Name, err)
		}
		specs = append(specs, suite.BenchmarkSpec{Name: b.Name, SizeClass: b.SizeClass, Actions: actions})
	}
	return suite.NewSuite(specs...)
}

// Preset returns the named sweep preset.
func (c Config) Preset(name string) (SweepPreset, error) {
	p, ok := c.Sweeps[strings.ToLower(name)]
	if !ok {
		return SweepPreset{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownPreset, name, strings.Join(c.PresetNames(), ", "))
	}
	return p, nil
}

// PresetNames returns configured preset names, sorted.
func (c Config) PresetNames() []string {
	names := make([]string, 0, len(c.Sweeps))
	for name := range c.Sweeps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InstallPath is the install tree as seen from the working directory: the
// tree the build installs into, resolved against SourceDir.
func (c Config) InstallPath() string {
	if c.Build.InstallPrefix != "" {
		return c.inSource(c.Build.InstallPrefix)
	}
	return c.inSource(c.InstallDir)
}

// StubObjectPath is Link.StubObject resolved against SourceDir.
func (c Config) StubObjectPath() string {
	return c.inSource(c.Link.StubObject)
}

func (c Config) inSource(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.SourceDir, p)
}

// EffectiveInstallPrefix is the CMAKE_INSTALL_PREFIX passed to the build.
func (c Config) EffectiveInstallPrefix() string {
	if c.Build.InstallPrefix != "" {
		return c.Build.InstallPrefix
	}
	return "./" + filepath.ToSlash(filepath.Clean(c.InstallDir))
}

// DefaultConfig returns the configuration reproducing the stock sweep scripts.
func DefaultConfig() *Config {
	return &Config{
		SourceDir:     ".",
		InstallDir:    "install",
		FailurePolicy: FailurePolicyContinue,
		Build: BuildConfig{
			CCompiler:   "clang",
			CXXCompiler: "clang++",
			BuildType:   "Debug",
			Generator:   GeneratorNinja,
			BuildDir:    "build",
			Verbose:     true,
			ExtraFlags:  []string{},
		},
		Runner: RunnerConfig{Script: "./run_pass.sh"},
		Link:   LinkConfig{Driver: "clang++", StubObject: "stubs/BoundCheck.o"},
		Timing: TimingConfig{Tool: "hyperfine", Warmup: 2},
		Benchmarks: []BenchmarkEntry{
			{Name: "is", SizeClass: suite.SizeClassLarge},
			{Name: "bfs", SizeClass: suite.SizeClassLarge},
			{Name: "dither", SizeClass: suite.SizeClassLarge},
			{Name: "jacobi-1d", SizeClass: suite.SizeClassLarge},
			{Name: "malloc_1d_array", SizeClass: suite.SizeClassMicro},
			{Name: "static_1d_array", SizeClass: suite.SizeClassMicro},
			{Name: "global_1d_array", SizeClass: suite.SizeClassMicro},
			{Name: "check_elimination", SizeClass: suite.SizeClassMicro},
			{Name: "check_modification", SizeClass: suite.SizeClassMicro},
		},
		Sweeps: map[string]SweepPreset{
			"stat":     {OutputDir: "stat", Actions: []string{"process", "stats"}},
			"baseline": {OutputDir: "stat_baseline", Actions: []string{"process", "size", "timing"}, SizeCSV: "stat_baseline_size.csv"},
			"size":     {OutputDir: "stat_size", Actions: []string{"process", "size"}},
			"timing":   {OutputDir: "stat_timing", Actions: []string{"timing"}},
		},
		History: HistoryConfig{Limit: 10},
		UI:      UIConfig{ColorScheme: ColorSchemeAuto},
	}
}
