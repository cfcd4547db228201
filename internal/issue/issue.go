// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	BuildFailedId Id = iota + 1
	ArtifactMissingId
	ConfigLoadFailedId
	RunnerScriptNotFoundId
	ToolNotFoundId
	OutputDirFailedId
	BenchmarkFailedId
	HistoryUnavailableId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // catalog key
	title    string      // one-line summary for listings
	mdMsg    MarkdownMsg // Markdown body rendered by glamour
	extLinks []HttpLink  // upstream tool documentation
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Title() string {
	return i.title
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render formats the issue body for the terminal using the given glamour
// style ("dark", "light", "notty", "auto" or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	buildFailedIssue = &Issue{
		id:    BuildFailedId,
		title: "Toolchain build failed",
		mdMsg: `
# The pass toolchain did not build!

The build script exited with a non-zero status, so no benchmark was processed.

## Things you can try:
- Run the build by hand from the source directory:
~~~
$ cmake -B build -S . -G Ninja
$ (cd build && ninja install)
~~~
- Check that clang and clang++ are on your PATH
- Override the compilers in your config:
~~~cue
build: {
	c_compiler:   "clang-18"
	cxx_compiler: "clang++-18"
}
~~~
- Skip the build when the install tree is already current:
~~~
$ benchsweep sweep stat --skip-build
~~~`,
		extLinks: []HttpLink{"https://cmake.org/cmake/help/latest/manual/cmake.1.html"},
	}

	artifactMissingIssue = &Issue{
		id:    ArtifactMissingId,
		title: "Bitcode artifact missing",
		mdMsg: `
# A bitcode artifact is missing!

Size comparison needs both the original and the transformed bitcode:

- ` + "`install/benchmark/<class>_benchmark/<name>.bc`" + `
- ` + "`install/<name>-transformed.bc`" + `

## Things you can try:
- Make sure the sweep runs the ` + "`process`" + ` action before ` + "`size`" + `
- Check that the benchmark's size class matches where its bitcode is installed
- Look at the runner script output for the benchmark above this message`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		title: "Configuration could not be loaded",
		mdMsg: `
# Failed to load configuration!

benchsweep looks for, in order:
1. the file given with ` + "`--config`" + `
2. ` + "`benchsweep.cue`" + ` in the current directory
3. ` + "`$XDG_CONFIG_HOME/benchsweep/config.cue`" + `
4. ` + "`benchsweep.toml`" + ` in the current directory

## Things you can try:
- Print the effective configuration:
~~~
$ benchsweep config show
~~~
- Check the file for CUE syntax errors or unknown fields
- Start over from a generated file:
~~~
$ benchsweep config dump > benchsweep.cue
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	runnerScriptNotFoundIssue = &Issue{
		id:    RunnerScriptNotFoundId,
		title: "Pass runner script not found",
		mdMsg: `
# The pass runner script is missing!

Each benchmark is processed by running the runner script from the install
directory. The toolchain install step normally places it there.

## Things you can try:
- Rebuild without ` + "`--skip-build`" + `
- Point ` + "`runner.script`" + ` at the right file
- Make sure the script is executable:
~~~
$ chmod +x install/run_pass.sh
~~~`,
	}

	toolNotFoundIssue = &Issue{
		id:    ToolNotFoundId,
		title: "External tool not found",
		mdMsg: `
# A required tool is not on your PATH!

The timing action links executables with ` + "`clang++`" + ` and measures them
with ` + "`hyperfine`" + `.

## Things you can try:
- Install hyperfine
- Point ` + "`link.driver`" + ` or ` + "`timing.tool`" + ` at absolute paths`,
		extLinks: []HttpLink{"https://github.com/sharkdp/hyperfine"},
	}

	outputDirFailedIssue = &Issue{
		id:    OutputDirFailedId,
		title: "Output directory could not be prepared",
		mdMsg: `
# Could not reset the output directory!

Every sweep removes and recreates its output directory before running.

## Things you can try:
- Check permissions on the directory and its parent
- Close programs holding files open inside it`,
	}

	benchmarkFailedIssue = &Issue{
		id:    BenchmarkFailedId,
		title: "Some benchmark steps failed",
		mdMsg: `
# Some benchmark steps failed!

The sweep kept going after the failures listed in the summary.

## Things you can try:
- Re-run only the failing benchmarks:
~~~
$ benchsweep sweep stat --only is,bfs
~~~
- Stop on the first failure instead:
~~~cue
failure_policy: "abort"
~~~`,
	}

	historyUnavailableIssue = &Issue{
		id:    HistoryUnavailableId,
		title: "Run history store unavailable",
		mdMsg: `
# The run history database could not be opened!

Sweeps still run; only history recording is skipped.

## Things you can try:
- Check the ` + "`history.path`" + ` setting
- Remove a corrupted database file and let benchsweep recreate it`,
	}

	catalog = []*Issue{
		buildFailedIssue,
		artifactMissingIssue,
		configLoadFailedIssue,
		runnerScriptNotFoundIssue,
		toolNotFoundIssue,
		outputDirFailedIssue,
		benchmarkFailedIssue,
		historyUnavailableIssue,
	}

	issues = func() map[Id]*Issue {
		m := make(map[Id]*Issue, len(catalog))
		for _, i := range catalog {
			m[i.id] = i
		}
		return m
	}()
)

// Values returns every catalog entry in Id order.
func Values() []*Issue {
	return slices.Clone(catalog)
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
