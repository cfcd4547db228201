// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrNoScript is returned when a virtual execution has no script set.
var ErrNoScript = errors.New("script has no content to execute")

// VirtualRuntime interprets shell scripts in-process using mvdan/sh.
// External commands named by the script (cmake, ninja, ...) are still
// started as host processes.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return string(RuntimeTypeVirtual)
}

// Available returns whether this runtime is available
func (r *VirtualRuntime) Available() bool {
	// Virtual runtime is always available as it's built-in
	return true
}

// Validate checks that the script is present and parses.
func (r *VirtualRuntime) Validate(ctx *ExecutionContext) error {
	_, err := r.parse(ctx)
	return err
}

// Execute interprets the script, streaming output to ctx.Stdout/Stderr.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.run(ctx, streamTo(ctx))
}

// ExecuteCapture interprets the script and captures its output
func (r *VirtualRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	return r.run(ctx, captureInto())
}

func (r *VirtualRuntime) run(ctx *ExecutionContext, out sink) *Result {
	prog, err := r.parse(ctx)
	if err != nil {
		return NewErrorResult(1, err)
	}

	workDir := ctx.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return NewErrorResult(1, fmt.Errorf("failed to determine working directory: %w", err))
		}
	}

	opts := []interp.RunnerOption{
		interp.Dir(workDir),
		interp.Env(expand.ListEnviron(BuildEnv(os.Environ(), ctx.Env)...)),
		interp.StdIO(ctx.Stdin, out.stdout, out.stderr),
		interp.ExecHandlers(r.execHandler),
	}

	// Prepend "--" so args like "-v" are not taken as shell options.
	if len(ctx.Args) > 0 {
		params := append([]string{"--"}, ctx.Args...)
		opts = append(opts, interp.Params(params...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	err = runner.Run(execCtx, prog)
	if err == nil {
		return out.result(0, nil)
	}
	var exitStatus interp.ExitStatus
	if errors.As(err, &exitStatus) {
		return out.result(ExitCode(exitStatus), nil)
	}
	return out.result(1, fmt.Errorf("script execution failed: %w", err))
}

func (r *VirtualRuntime) parse(ctx *ExecutionContext) (*syntax.File, error) {
	if strings.TrimSpace(ctx.Script) == "" {
		return nil, ErrNoScript
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(ctx.Script), "script")
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}
	return prog, nil
}

// execHandler logs every external command the script starts.
func (r *VirtualRuntime) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			hc := interp.HandlerCtx(ctx)
			slog.Debug("script exec", "cmd", strings.Join(args, " "), "dir", hc.Dir)
		}
		return next(ctx, args)
	}
}
