// SPDX-License-Identifier: MPL-2.0

// Package runtime provides the subprocess execution interface and implementations
// used to drive the external toolchain: the build system, the pass runner script,
// the compiler driver and the timing tool.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Runtime type constants for different execution environments.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
)

type (
	// ExecutionContext contains all information needed to run one subprocess.
	// Native runtimes use Program and Args; the virtual runtime uses Script and
	// passes Args as positional parameters.
	ExecutionContext struct {
		// Context is the Go context for cancellation
		Context context.Context
		// Program is the executable to run (native runtime)
		Program string
		// Args are passed to Program, or as $1, $2, ... to Script
		Args []string
		// Script is the shell source to interpret (virtual runtime)
		Script string
		// WorkDir is the working directory; empty means the current directory
		WorkDir string
		// Env contains variables layered over the host environment for this call only.
		// The host process environment is never modified.
		Env map[string]string
		// Stdout is where to write standard output
		Stdout io.Writer
		// Stderr is where to write standard error
		Stderr io.Writer
		// Stdin is where to read standard input
		Stdin io.Reader
	}

	// Result contains the result of a subprocess execution.
	Result struct {
		// ExitCode is the exit code of the process
		ExitCode ExitCode
		// Error is set when the process could not be run at all
		Error error
		// Output contains captured stdout (if captured)
		Output string
		// ErrOutput contains captured stderr (if captured)
		ErrOutput string
	}

	// Runtime defines the interface for subprocess execution.
	Runtime interface {
		// Name returns the runtime name
		Name() string
		// Execute runs the described process in this runtime
		Execute(ctx *ExecutionContext) *Result
		// Available returns whether this runtime is available on the current system
		Available() bool
		// Validate checks if the execution context can be run with this runtime
		Validate(ctx *ExecutionContext) error
	}

	// CapturingRuntime is implemented by runtimes that support capturing output.
	CapturingRuntime interface {
		// ExecuteCapture runs a process and captures stdout/stderr.
		ExecuteCapture(ctx *ExecutionContext) *Result
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// ExitStatusError reports a process that ran but exited unsuccessfully.
	ExitStatusError struct {
		Code ExitCode
	}
)

// NewExecutionContext creates an execution context bound to ctx with the
// process's standard streams.
func NewExecutionContext(ctx context.Context) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ExecutionContext{
		Context: ctx,
		Env:     make(map[string]string),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
	}
}

// Command returns a copy of the context that runs program with args.
func (c *ExecutionContext) Command(program string, args ...string) *ExecutionContext {
	cp := c.clone()
	cp.Program = program
	cp.Args = args
	cp.Script = ""
	return cp
}

// ShellScript returns a copy of the context that interprets script.
func (c *ExecutionContext) ShellScript(script string, args ...string) *ExecutionContext {
	cp := c.clone()
	cp.Program = ""
	cp.Script = script
	cp.Args = args
	return cp
}

// InDir returns a copy of the context that runs in dir.
func (c *ExecutionContext) InDir(dir string) *ExecutionContext {
	cp := c.clone()
	cp.WorkDir = dir
	return cp
}

// WithEnv returns a copy of the context with key=value added to its
// per-call environment.
func (c *ExecutionContext) WithEnv(key, value string) *ExecutionContext {
	cp := c.clone()
	cp.Env[key] = value
	return cp
}

func (c *ExecutionContext) clone() *ExecutionContext {
	cp := *c
	cp.Env = make(map[string]string, len(c.Env)+1)
	for k, v := range c.Env {
		cp.Env[k] = v
	}
	cp.Args = append([]string(nil), c.Args...)
	return &cp
}

// String returns the human-readable form of the invocation.
func (c *ExecutionContext) String() string {
	if c.Script != "" {
		return "sh -c " + fmt.Sprintf("%q", c.Script)
	}
	s := c.Program
	for _, a := range c.Args {
		s += " " + a
	}
	return s
}

// Success reports whether the process ran and exited with status zero.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}

// Err converts the result to an error: the launch error if the process could
// not run, an *ExitStatusError for a non-zero exit, or nil.
func (r *Result) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if !r.ExitCode.IsSuccess() {
		return &ExitStatusError{Code: r.ExitCode}
	}
	return nil
}

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// String returns the runtime type name.
func (t RuntimeType) String() string { return string(t) }
