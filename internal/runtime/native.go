// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// ErrNoProgram is returned when a native execution has no program set.
var ErrNoProgram = errors.New("no program to execute")

// NativeRuntime executes programs directly on the host with os/exec.
type NativeRuntime struct{}

// NewNativeRuntime creates a new native runtime
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return string(RuntimeTypeNative)
}

// Available returns whether this runtime is available
func (r *NativeRuntime) Available() bool {
	return true
}

// Validate checks if the program can be executed
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	if ctx.Program == "" {
		return ErrNoProgram
	}
	return nil
}

// Execute runs the program, streaming output to ctx.Stdout/Stderr.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.run(ctx, streamTo(ctx))
}

// ExecuteCapture runs the program and captures its output
func (r *NativeRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	return r.run(ctx, captureInto())
}

func (r *NativeRuntime) run(ctx *ExecutionContext, out sink) *Result {
	if err := r.Validate(ctx); err != nil {
		return NewErrorResult(1, err)
	}

	// A relative Program containing a separator is resolved against WorkDir.
	cmd := exec.CommandContext(ctx.Context, ctx.Program, ctx.Args...)
	if ctx.WorkDir != "" {
		cmd.Dir = ctx.WorkDir
	}
	cmd.Env = BuildEnv(os.Environ(), ctx.Env)
	cmd.Stdout = out.stdout
	cmd.Stderr = out.stderr
	cmd.Stdin = ctx.Stdin

	slog.Debug("running process", "cmd", ctx.String(), "dir", cmd.Dir)

	code, err := exitCodeOf(cmd.Run())
	if err != nil {
		err = fmt.Errorf("failed to execute %s: %w", ctx.Program, err)
	}
	return out.result(code, err)
}
