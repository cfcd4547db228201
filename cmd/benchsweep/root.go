// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/boundcheck/benchsweep/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "benchsweep",
		Short: "Benchmark sweeps for the bound-check pass",
		Long: TitleStyle.Render("benchsweep") + SubtitleStyle.Render(" - benchmark sweeps for the bound-check pass") + `

benchsweep builds and installs the pass toolchain, runs every configured
benchmark through the pass runner, and collects bitcode size, run time and
check count statistics into the sweep's output directory.

` + SubtitleStyle.Render("Examples:") + `
  benchsweep sweep baseline             Build, process, compare sizes and time
  benchsweep sweep stat --skip-build    Collect check statistics only
  benchsweep sweep size --only is,bfs   Restrict to some benchmarks
  benchsweep bench list                 Show the benchmark table
  benchsweep config show                Show the effective configuration`,
		SilenceUsage: true,
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is ./benchsweep.cue, then $XDG_CONFIG_HOME/benchsweep/config.cue)")

	root.AddCommand(
		newSweepCommand(app),
		newBenchCommand(app),
		newConfigCommand(app),
		newStatsCommand(app),
		newHistoryCommand(app),
		newIssueCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the CLI and returns the process exit code.
func Run() int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			printError(w, err, app.verbose)
		}),
	)
	return exitCode(err)
}

// Execute runs the CLI and exits. It is called by main.main().
func Execute() {
	os.Exit(Run())
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printError writes err for the user. A bare ExitError has already been
// reported by its command.
func printError(w io.Writer, err error, verbose bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue() != nil {
		fmt.Fprintf(w, "\n%s\n", SubtitleStyle.Render(fmt.Sprintf("Run 'benchsweep issue %d' for help.", ae.IssueID)))
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
