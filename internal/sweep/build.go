// SPDX-License-Identifier: MPL-2.0

package sweep

import (
	"context"
	"fmt"

	"github.com/boundcheck/benchsweep/internal/issue"
	"github.com/boundcheck/benchsweep/internal/runtime"
)

// Build configures, builds and installs the toolchain from the source
// directory. The script is syntax-checked before anything runs.
func (d *Driver) Build(ctx context.Context) (StepResult, error) {
	ec := d.execContext(runtime.NewExecutionContext(ctx)).
		ShellScript(d.opts.BuildScript).
		InDir(d.opts.SourceDir)

	if err := d.virtual.Validate(ec); err != nil {
		d.printf("Build failed")
		res := StepResult{Step: StepBuild, ExitCode: 1, Err: err}
		return res, d.buildError(err)
	}

	d.logger.Info("building toolchain", "dir", d.opts.SourceDir)
	res := d.step("", StepBuild, func() *runtime.Result { return d.virtual.Execute(ec) })
	if res.Err != nil {
		d.printf("Build failed")
		return res, d.buildError(res.Err)
	}
	d.printf("Build successful")
	return res, nil
}

func (d *Driver) buildError(cause error) error {
	return issue.NewErrorContext().
		WithOperation("build toolchain").
		WithResource(d.opts.SourceDir).
		WithIssue(issue.BuildFailedId).
		WithSuggestion("Run the build by hand from the source directory to see the full output").
		WithSuggestion("Use --skip-build if the install tree is already current").
		Wrap(fmt.Errorf("%w: %w", ErrBuildFailed, cause)).
		BuildError()
}
