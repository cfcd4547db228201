// SPDX-License-Identifier: MPL-2.0

package runtime

// NewErrorResult creates a Result for a process that could not be run.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and no error.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult creates a Result for a process that ran to completion
// with the given exit code.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}
