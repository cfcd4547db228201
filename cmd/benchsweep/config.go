// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boundcheck/benchsweep/internal/config"
)

// newConfigCommand creates the `benchsweep config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect benchsweep configuration",
		Long: `Inspect benchsweep configuration.

Configuration is read from the first of:
  - the file given with --config
  - ./benchsweep.cue
  - $XDG_CONFIG_HOME/benchsweep/config.cue (%APPDATA%\benchsweep on Windows)
  - ./benchsweep.toml

BENCHSWEEP_<KEY> environment variables override single values,
for example BENCHSWEEP_INSTALL_DIR or BENCHSWEEP_TIMING_WARMUP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, src, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			return showConfig(cmd.OutOrStdout(), cfg, src)
		},
	})

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE or TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			switch strings.ToLower(format) {
			case "cue":
				fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			case "toml":
				out, err := config.GenerateTOML(cfg)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			default:
				return fmt.Errorf("unknown format %q (want cue or toml)", format)
			}
			return nil
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "cue", "output format: cue or toml")
	cfgCmd.AddCommand(dumpCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, src, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if src == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(defaults)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), src)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to ./benchsweep.cue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.LocalCUEFile
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.Save(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", successIcon, CmdStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, src string) error {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	kv := func(indent, key string, value any) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if src == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), src)
	}
	fmt.Fprintln(w)

	kv("", "source_dir", cfg.SourceDir)
	kv("", "install_dir", cfg.InstallDir)
	kv("", "failure_policy", cfg.FailurePolicy)
	if cfg.EnvFile != "" {
		kv("", "env_file", cfg.EnvFile)
	}

	script, err := cfg.BuildScript()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("build"))
	for line := range strings.SplitSeq(strings.TrimRight(script, "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}

	fmt.Fprintln(w)
	kv("", "runner.script", cfg.Runner.Script)
	kv("", "link.driver", cfg.Link.Driver)
	kv("", "link.stub_object", cfg.Link.StubObject)
	kv("", "timing.tool", cfg.Timing.Tool)
	kv("", "timing.warmup", cfg.Timing.Warmup)

	fmt.Fprintf(w, "\n%s:\n", keyStyle.Render("sweeps"))
	for _, name := range cfg.PresetNames() {
		p := cfg.Sweeps[name]
		fmt.Fprintf(w, "  %s: %s -> %s\n", valueStyle.Render(name), strings.Join(p.Actions, ","), p.OutputDir)
	}

	fmt.Fprintf(w, "\n%s: %d configured\n", keyStyle.Render("benchmarks"), len(cfg.Benchmarks))
	if cfg.History.Path != "" {
		kv("", "history.path", cfg.History.Path)
	}
	if cfg.Metrics.Textfile != "" {
		kv("", "metrics.textfile", cfg.Metrics.Textfile)
	}
	return nil
}
