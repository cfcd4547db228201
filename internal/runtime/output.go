// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"io"
)

// sink is where a run writes its output: the context's streams, or a pair
// of buffers when the caller wants the text back in the Result.
type sink struct {
	stdout, stderr io.Writer
	capture        *[2]bytes.Buffer
}

func streamTo(ctx *ExecutionContext) sink {
	return sink{stdout: ctx.Stdout, stderr: ctx.Stderr}
}

func captureInto() sink {
	bufs := new([2]bytes.Buffer)
	return sink{stdout: &bufs[0], stderr: &bufs[1], capture: bufs}
}

// result builds the Result of a finished run.
func (s sink) result(code ExitCode, err error) *Result {
	res := &Result{ExitCode: code, Error: err}
	if s.capture != nil {
		res.Output = s.capture[0].String()
		res.ErrOutput = s.capture[1].String()
	}
	return res
}
