// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/boundcheck/benchsweep/internal/config"
)

type (
	// App wires CLI services and shared state. Every command handler gets
	// the same App.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer

		// set by persistent flags
		cfgFile string
		verbose bool
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{Config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr}
}

// loadConfig reads configuration honouring --config, and folds ui.verbose
// into the verbose flag.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	cfg, src, err := a.Config.LoadWithSource(ctx, config.LoadOptions{ConfigFilePath: a.cfgFile})
	if err != nil {
		return nil, "", err
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	return cfg, src, nil
}
