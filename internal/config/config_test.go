// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/boundcheck/benchsweep/internal/issue"
	"github.com/boundcheck/benchsweep/internal/suite"
)

// isolatedOptions points every lookup at empty temp directories.
func isolatedOptions(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{WorkDir: t.TempDir(), ConfigDirPath: t.TempDir()}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	s, err := cfg.Suite()
	if err != nil {
		t.Fatalf("Suite() error = %v", err)
	}
	want := []string{
		"is", "bfs", "dither", "jacobi-1d",
		"malloc_1d_array", "static_1d_array", "global_1d_array", "check_elimination", "check_modification",
	}
	if !slices.Equal(s.Names(), want) {
		t.Errorf("default suite = %v, want %v", s.Names(), want)
	}
	if got := cfg.PresetNames(); !slices.Equal(got, []string{"baseline", "size", "stat", "timing"}) {
		t.Errorf("PresetNames() = %v", got)
	}
}

func TestBuildScript_Default(t *testing.T) {
	got, err := DefaultConfig().BuildScript()
	if err != nil {
		t.Fatalf("BuildScript() error = %v", err)
	}
	want := "cmake -DVERBOSE=TRUE -DCMAKE_C_COMPILER=clang -DCMAKE_CXX_COMPILER=clang++ " +
		"-DCMAKE_INSTALL_PREFIX=./install -DCMAKE_BUILD_TYPE=Debug -B build -S . -G Ninja\n" +
		"(cd build && ninja install)"
	if got != want {
		t.Errorf("BuildScript() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildScript_Variants(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		contains []string
	}{
		{
			name:     "makefiles generator is quoted",
			mutate:   func(c *Config) { c.Build.Generator = GeneratorMake },
			contains: []string{"-G 'Unix Makefiles'", "(cd build && make install)"},
		},
		{
			name:     "other generator uses cmake --build",
			mutate:   func(c *Config) { c.Build.Generator = "Xcode" },
			contains: []string{"cmake --build build --target install"},
		},
		{
			name: "release without verbose and with flags",
			mutate: func(c *Config) {
				c.Build.BuildType = "Release"
				c.Build.Verbose = false
				c.Build.ExtraFlags = []string{"-DLLVM_DIR=/opt/llvm 18"}
			},
			contains: []string{"cmake -DCMAKE_C_COMPILER=clang", "-DCMAKE_BUILD_TYPE=Release", "'-DLLVM_DIR=/opt/llvm 18'"},
		},
		{
			name:     "install_dir drives the prefix",
			mutate:   func(c *Config) { c.InstallDir = "out/inst" },
			contains: []string{"-DCMAKE_INSTALL_PREFIX=./out/inst"},
		},
		{
			name:     "verbatim script",
			mutate:   func(c *Config) { c.Build.Script = "make -j8 && make install" },
			contains: []string{"make -j8 && make install"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			got, err := cfg.BuildScript()
			if err != nil {
				t.Fatalf("BuildScript() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("BuildScript() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestSweepPreset_SizeCSVPath(t *testing.T) {
	cfg := DefaultConfig()
	baseline, err := cfg.Preset("baseline")
	if err != nil {
		t.Fatalf("Preset(baseline) error = %v", err)
	}
	if got, want := baseline.SizeCSVPath(), filepath.Join("stat_baseline", "stat_baseline_size.csv"); got != want {
		t.Errorf("baseline SizeCSVPath() = %q, want %q", got, want)
	}

	size, _ := cfg.Preset("size")
	if got, want := size.SizeCSVPath(), filepath.Join("stat_size", "stat_size_size.csv"); got != want {
		t.Errorf("size SizeCSVPath() = %q, want %q", got, want)
	}

	if _, err := cfg.Preset("nightly"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Preset(nightly) error = %v, want ErrUnknownPreset", err)
	}
}

func TestConfig_InstallPath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "opt")
	tests := []struct {
		name       string
		sourceDir  string
		installDir string
		prefix     string
		stub       string
		want       string
		wantStub   string
	}{
		{"defaults", ".", "install", "", "stubs/BoundCheck.o", "install", filepath.Join("stubs", "BoundCheck.o")},
		{"nested source", "pass", "install", "", "stubs/BoundCheck.o", filepath.Join("pass", "install"), filepath.Join("pass", "stubs", "BoundCheck.o")},
		{"prefix wins", "pass", "install", "./dist", "stubs/BoundCheck.o", filepath.Join("pass", "dist"), filepath.Join("pass", "stubs", "BoundCheck.o")},
		{"absolute paths kept", "pass", abs, "", abs, abs, abs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SourceDir = tt.sourceDir
			cfg.InstallDir = tt.installDir
			cfg.Build.InstallPrefix = tt.prefix
			cfg.Link.StubObject = tt.stub
			if got := cfg.InstallPath(); got != tt.want {
				t.Errorf("InstallPath() = %q, want %q", got, tt.want)
			}
			if got := cfg.StubObjectPath(); got != tt.wantStub {
				t.Errorf("StubObjectPath() = %q, want %q", got, tt.wantStub)
			}
		})
	}
}

func TestConfig_IsValid_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"bad failure policy", func(c *Config) { c.FailurePolicy = "retry" }, ErrInvalidFailurePolicy},
		{"bad color scheme", func(c *Config) { c.UI.ColorScheme = "neon" }, ErrInvalidColorScheme},
		{"bad build type", func(c *Config) { c.Build.BuildType = "Fast" }, ErrInvalidBuildType},
		{
			"duplicate benchmark",
			func(c *Config) {
				c.Benchmarks = append(c.Benchmarks, BenchmarkEntry{Name: "is", SizeClass: suite.SizeClassMicro})
			},
			suite.ErrDuplicateBenchmark,
		},
		{
			"preset without actions",
			func(c *Config) { c.Sweeps["empty"] = SweepPreset{OutputDir: "stat_empty"} },
			ErrInvalidSweepPreset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			valid, errs := cfg.IsValid()
			if valid {
				t.Fatal("IsValid() = true, want false")
			}
			var cfgErr *InvalidConfigError
			if !errors.As(errs[0], &cfgErr) {
				t.Fatalf("IsValid() error type = %T, want *InvalidConfigError", errs[0])
			}
			found := false
			for _, fe := range cfgErr.FieldErrors {
				if errors.Is(fe, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("field errors %v do not contain %v", cfgErr.FieldErrors, tt.wantErr)
			}
			if !errors.Is(cfg.Validate(), ErrInvalidConfig) {
				t.Error("Validate() should wrap ErrInvalidConfig")
			}
		})
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, path, err := NewProvider().LoadWithSource(context.Background(), isolatedOptions(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("source path = %q, want empty", path)
	}
	if cfg.InstallDir != "install" || cfg.Runner.Script != "./run_pass.sh" || cfg.Timing.Warmup != 2 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if len(cfg.Benchmarks) != 9 || len(cfg.Sweeps) != 4 {
		t.Errorf("got %d benchmarks and %d sweeps, want 9 and 4", len(cfg.Benchmarks), len(cfg.Sweeps))
	}
}

func TestLoad_LocalCUEOverrides(t *testing.T) {
	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(opts.WorkDir, LocalCUEFile), `
failure_policy: "abort"
build: c_compiler: "clang-18"
benchmarks: [
	{name: "is", size_class: "large"},
	{name: "check_elimination", size_class: "micro", actions: ["process"]},
]
sweeps: nightly: {output_dir: "stat_nightly", actions: ["process", "size"]}
`)

	cfg, path, err := NewProvider().LoadWithSource(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != filepath.Join(opts.WorkDir, LocalCUEFile) {
		t.Errorf("source path = %q", path)
	}
	if cfg.FailurePolicy != FailurePolicyAbort {
		t.Errorf("FailurePolicy = %q, want abort", cfg.FailurePolicy)
	}
	if cfg.Build.CCompiler != "clang-18" || cfg.Build.CXXCompiler != "clang++" {
		t.Errorf("build compilers = %q/%q", cfg.Build.CCompiler, cfg.Build.CXXCompiler)
	}
	if len(cfg.Benchmarks) != 2 || cfg.Benchmarks[1].Name != "check_elimination" {
		t.Fatalf("benchmarks not replaced: %+v", cfg.Benchmarks)
	}
	if !slices.Equal(cfg.Benchmarks[1].Actions, []string{"process"}) {
		t.Errorf("benchmark actions = %v", cfg.Benchmarks[1].Actions)
	}
	if _, err := cfg.Preset("nightly"); err != nil {
		t.Errorf("custom preset missing: %v", err)
	}
	if _, err := cfg.Preset("baseline"); err != nil {
		t.Errorf("default preset lost after merge: %v", err)
	}
}

func TestLoad_UserConfigDirFallback(t *testing.T) {
	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(opts.ConfigDirPath, ConfigFileName), `install_dir: "prefix"`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InstallDir != "prefix" {
		t.Errorf("InstallDir = %q, want prefix", cfg.InstallDir)
	}
}

func TestLoad_TOML(t *testing.T) {
	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(opts.WorkDir, LocalTOMLFile), `
install_dir = "inst"

[timing]
warmup = 5

[sweeps.quick]
output_dir = "stat_quick"
actions = ["process"]
`)

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InstallDir != "inst" || cfg.Timing.Warmup != 5 || cfg.Timing.Tool != "hyperfine" {
		t.Errorf("TOML values not merged: install=%q timing=%+v", cfg.InstallDir, cfg.Timing)
	}
	if _, err := cfg.Preset("quick"); err != nil {
		t.Errorf("Preset(quick) error = %v", err)
	}
}

func TestLoad_SchemaRejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown field", LocalCUEFile, "bogus: 1\n"},
		{"bad policy", LocalCUEFile, `failure_policy: "never"`},
		{"bad size class", LocalCUEFile, `benchmarks: [{name: "is", size_class: "huge"}]`},
		{"negative warmup", LocalCUEFile, "timing: warmup: -1\n"},
		{"cue syntax", LocalCUEFile, "build: {\n"},
		{"toml bad action", LocalTOMLFile, "[sweeps.x]\noutput_dir = \"x\"\nactions = [\"profile\"]\n"},
		{"toml syntax", LocalTOMLFile, "install_dir = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := isolatedOptions(t)
			writeFile(t, filepath.Join(opts.WorkDir, tt.file), tt.content)

			_, err := NewProvider().Load(context.Background(), opts)
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error type = %T, want *issue.ActionableError", err)
			}
			if ae.IssueID != issue.ConfigLoadFailedId {
				t.Errorf("IssueID = %d, want ConfigLoadFailedId", ae.IssueID)
			}
			if !strings.Contains(err.Error(), tt.file) {
				t.Errorf("error %q does not name the file", err)
			}
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	opts := isolatedOptions(t)
	opts.ConfigFilePath = filepath.Join(opts.WorkDir, "nope.cue")

	_, err := NewProvider().Load(context.Background(), opts)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() error = %v, want fs.ErrNotExist", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BENCHSWEEP_FAILURE_POLICY", "abort")
	t.Setenv("BENCHSWEEP_TIMING_TOOL", "/usr/local/bin/hyperfine")

	cfg, err := NewProvider().Load(context.Background(), isolatedOptions(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FailurePolicy != FailurePolicyAbort {
		t.Errorf("FailurePolicy = %q, want abort", cfg.FailurePolicy)
	}
	if cfg.Timing.Tool != "/usr/local/bin/hyperfine" {
		t.Errorf("Timing.Tool = %q", cfg.Timing.Tool)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, isolatedOptions(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_LoadsBack(t *testing.T) {
	opts := isolatedOptions(t)
	cfg := DefaultConfig()
	cfg.FailurePolicy = FailurePolicyAbort
	cfg.Benchmarks[0].Actions = []string{"process", "size"}
	path := filepath.Join(opts.WorkDir, LocalCUEFile)
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() of generated CUE error = %v\n%s", err, GenerateCUE(cfg))
	}
	if loaded.FailurePolicy != FailurePolicyAbort {
		t.Errorf("FailurePolicy = %q", loaded.FailurePolicy)
	}
	if len(loaded.Benchmarks) != len(cfg.Benchmarks) {
		t.Fatalf("benchmarks = %d, want %d", len(loaded.Benchmarks), len(cfg.Benchmarks))
	}
	if !slices.Equal(loaded.Benchmarks[0].Actions, []string{"process", "size"}) {
		t.Errorf("benchmark actions = %v", loaded.Benchmarks[0].Actions)
	}
	if !slices.Equal(loaded.PresetNames(), cfg.PresetNames()) {
		t.Errorf("presets = %v, want %v", loaded.PresetNames(), cfg.PresetNames())
	}
	if loaded.Sweeps["baseline"].SizeCSV != "stat_baseline_size.csv" {
		t.Errorf("baseline size_csv = %q", loaded.Sweeps["baseline"].SizeCSV)
	}
}

func TestGenerateTOML(t *testing.T) {
	out, err := GenerateTOML(DefaultConfig())
	if err != nil {
		t.Fatalf("GenerateTOML() error = %v", err)
	}
	for _, want := range []string{"install_dir = ", "[timing]", "[sweeps.baseline]"} {
		if !strings.Contains(out, want) {
			t.Errorf("GenerateTOML() missing %q:\n%s", want, out)
		}
	}
}

func TestConfigDir_Override(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride("/tmp/bs-config")
	dir, err := ConfigDir()
	if err != nil || dir != "/tmp/bs-config" {
		t.Errorf("ConfigDir() = %q, %v", dir, err)
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"failure_policy"}, "failure_policy"},
		{[]string{"benchmarks", "0", "name"}, "benchmarks[0].name"},
		{[]string{"sweeps", "stat", "actions", "1"}, "sweeps.stat.actions[1]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.in); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
