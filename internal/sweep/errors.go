// SPDX-License-Identifier: MPL-2.0

package sweep

import "errors"

var (
	// ErrBuildFailed is returned when the toolchain build exits non-zero.
	// No benchmark work is attempted afterwards.
	ErrBuildFailed = errors.New("build failed")
	// ErrArtifactMissing is returned when a bitcode file needed for size
	// comparison does not exist. It always accompanies fs.ErrNotExist.
	ErrArtifactMissing = errors.New("artifact missing")
	// ErrOutputDir is returned when the output directory cannot be reset.
	ErrOutputDir = errors.New("cannot prepare output directory")
	// ErrSizeRecord is returned when a size record cannot be appended.
	ErrSizeRecord = errors.New("cannot write size record")
)
