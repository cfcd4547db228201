// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/boundcheck/benchsweep/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "benchsweep"
	// EnvPrefix prefixes environment variable overrides (BENCHSWEEP_INSTALL_DIR, ...).
	EnvPrefix = "BENCHSWEEP"
	// ConfigFileName is the user-level config file name inside ConfigDir.
	ConfigFileName = "config.cue"
	// LocalCUEFile is the project config looked up in the working directory.
	LocalCUEFile = AppName + ".cue"
	// LocalTOMLFile is the TOML alternative looked up in the working directory.
	LocalTOMLFile = AppName + ".toml"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the benchsweep user configuration directory:
// %APPDATA%\benchsweep on Windows, $XDG_CONFIG_HOME/benchsweep (default
// ~/.config/benchsweep) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string
	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// newViper returns a viper instance carrying every default and the
// environment override binding.
func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("source_dir", d.SourceDir)
	v.SetDefault("install_dir", d.InstallDir)
	v.SetDefault("env_file", d.EnvFile)
	v.SetDefault("failure_policy", string(d.FailurePolicy))
	v.SetDefault("build.c_compiler", d.Build.CCompiler)
	v.SetDefault("build.cxx_compiler", d.Build.CXXCompiler)
	v.SetDefault("build.build_type", d.Build.BuildType)
	v.SetDefault("build.generator", d.Build.Generator)
	v.SetDefault("build.build_dir", d.Build.BuildDir)
	v.SetDefault("build.install_prefix", d.Build.InstallPrefix)
	v.SetDefault("build.verbose", d.Build.Verbose)
	v.SetDefault("build.extra_flags", d.Build.ExtraFlags)
	v.SetDefault("build.script", d.Build.Script)
	v.SetDefault("runner.script", d.Runner.Script)
	v.SetDefault("link.driver", d.Link.Driver)
	v.SetDefault("link.stub_object", d.Link.StubObject)
	v.SetDefault("timing.tool", d.Timing.Tool)
	v.SetDefault("timing.warmup", d.Timing.Warmup)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.limit", d.History.Limit)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
	v.SetDefault("ui.verbose", d.UI.Verbose)

	benchmarks := make([]map[string]any, 0, len(d.Benchmarks))
	for _, b := range d.Benchmarks {
		benchmarks = append(benchmarks, map[string]any{"name": b.Name, "size_class": string(b.SizeClass)})
	}
	v.SetDefault("benchmarks", benchmarks)

	for name, p := range d.Sweeps {
		v.SetDefault("sweeps."+name+".output_dir", p.OutputDir)
		v.SetDefault("sweeps."+name+".actions", p.Actions)
		v.SetDefault("sweeps."+name+".size_csv", p.SizeCSV)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	path, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := mergeFile(v, path); err != nil {
			return nil, "", loadError(path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", loadError(path, fmt.Errorf("failed to parse config: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Run 'benchsweep config show' to inspect the effective values").
			Wrap(err).
			BuildError()
	}

	return &cfg, path, nil
}

// resolveConfigPath picks the single config file to read. An explicit path
// must exist; otherwise the first existing candidate wins and none is fine.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				Wrap(fmt.Errorf("config file not found: %w", fs.ErrNotExist)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	workDir := opts.WorkDir
	candidates := []string{filepath.Join(workDir, LocalCUEFile)}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}
	candidates = append(candidates, filepath.Join(cfgDir, ConfigFileName), filepath.Join(workDir, LocalTOMLFile))

	for _, c := range candidates {
		if fileExists(c) {
			return c, nil
		}
	}
	return "", nil
}

// mergeFile decodes a CUE or TOML file, validates it against #Config, and
// merges it over the viper defaults.
func mergeFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := checkFileSize(data, maxConfigFileSize, path); err != nil {
			return err
		}
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return fmt.Errorf("%s:%d:%d: %s", path, row, col, derr.Error())
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		if doc, err = validateMap(raw, path); err != nil {
			return err
		}
	default:
		if doc, err = decodeCUE(data, path); err != nil {
			return err
		}
	}

	if err := v.MergeConfigMap(doc); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func loadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestion("Check that the file contains valid CUE or TOML").
		WithSuggestion("Verify the values match the schema printed by 'benchsweep config dump'").
		Wrap(err).
		BuildError()
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Save writes cfg as CUE to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateTOML renders cfg as TOML.
func GenerateTOML(cfg *Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config as TOML: %w", err)
	}
	return string(data), nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// benchsweep configuration\n\n")
	fmt.Fprintf(&sb, "source_dir:     %q\n", cfg.SourceDir)
	fmt.Fprintf(&sb, "install_dir:    %q\n", cfg.InstallDir)
	fmt.Fprintf(&sb, "env_file:       %q\n", cfg.EnvFile)
	fmt.Fprintf(&sb, "failure_policy: %q\n", cfg.FailurePolicy)

	sb.WriteString("\nbuild: {\n")
	fmt.Fprintf(&sb, "\tc_compiler:     %q\n", cfg.Build.CCompiler)
	fmt.Fprintf(&sb, "\tcxx_compiler:   %q\n", cfg.Build.CXXCompiler)
	fmt.Fprintf(&sb, "\tbuild_type:     %q\n", cfg.Build.BuildType)
	fmt.Fprintf(&sb, "\tgenerator:      %q\n", cfg.Build.Generator)
	fmt.Fprintf(&sb, "\tbuild_dir:      %q\n", cfg.Build.BuildDir)
	fmt.Fprintf(&sb, "\tinstall_prefix: %q\n", cfg.Build.InstallPrefix)
	fmt.Fprintf(&sb, "\tverbose:        %v\n", cfg.Build.Verbose)
	fmt.Fprintf(&sb, "\textra_flags: [%s]\n", quoteList(cfg.Build.ExtraFlags))
	if cfg.Build.Script != "" {
		fmt.Fprintf(&sb, "\tscript: %q\n", cfg.Build.Script)
	}
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nrunner: script: %q\n", cfg.Runner.Script)
	fmt.Fprintf(&sb, "\nlink: {\n\tdriver:      %q\n\tstub_object: %q\n}\n", cfg.Link.Driver, cfg.Link.StubObject)
	fmt.Fprintf(&sb, "\ntiming: {\n\ttool:   %q\n\twarmup: %d\n}\n", cfg.Timing.Tool, cfg.Timing.Warmup)

	sb.WriteString("\nbenchmarks: [\n")
	for _, b := range cfg.Benchmarks {
		if len(b.Actions) > 0 {
			fmt.Fprintf(&sb, "\t{name: %q, size_class: %q, actions: [%s]},\n", b.Name, b.SizeClass, quoteList(b.Actions))
		} else {
			fmt.Fprintf(&sb, "\t{name: %q, size_class: %q},\n", b.Name, b.SizeClass)
		}
	}
	sb.WriteString("]\n")

	sb.WriteString("\nsweeps: {\n")
	for _, name := range cfg.PresetNames() {
		p := cfg.Sweeps[name]
		fmt.Fprintf(&sb, "\t%q: {output_dir: %q, actions: [%s]", name, p.OutputDir, quoteList(p.Actions))
		if p.SizeCSV != "" {
			fmt.Fprintf(&sb, ", size_csv: %q", p.SizeCSV)
		}
		sb.WriteString("}\n")
	}
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nhistory: {\n\tpath:  %q\n\tlimit: %d\n}\n", cfg.History.Path, cfg.History.Limit)
	fmt.Fprintf(&sb, "\nmetrics: textfile: %q\n", cfg.Metrics.Textfile)
	fmt.Fprintf(&sb, "\nui: {\n\tcolor_scheme: %q\n\tverbose:      %v\n}\n", cfg.UI.ColorScheme, cfg.UI.Verbose)

	return sb.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
