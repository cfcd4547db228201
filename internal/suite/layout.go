// SPDX-License-Identifier: MPL-2.0

package suite

import "path/filepath"

// Layout resolves artifact paths inside the toolchain install directory.
// The naming conventions are shared with run_pass.sh and must not change:
//
//	<install>/benchmark/<size-class>_benchmark/<name>.bc   original bitcode
//	<install>/<name>-transformed.bc                        transformed bitcode
//	<install>/<name>-original.out                          original executable
//	<install>/<name>-transformed.out                       transformed executable
type Layout struct {
	InstallDir string
}

// NewLayout returns a layout rooted at installDir.
func NewLayout(installDir string) Layout {
	return Layout{InstallDir: installDir}
}

// OriginalBitcode returns the pre-transformation bitcode path.
func (l Layout) OriginalBitcode(spec BenchmarkSpec) string {
	return filepath.Join(l.InstallDir, "benchmark", string(spec.SizeClass)+"_benchmark", spec.Name+".bc")
}

// TransformedBitcode returns the post-transformation bitcode path.
func (l Layout) TransformedBitcode(spec BenchmarkSpec) string {
	return filepath.Join(l.InstallDir, spec.Name+"-transformed.bc")
}

// OriginalExecutable returns the linked original executable path.
func (l Layout) OriginalExecutable(spec BenchmarkSpec) string {
	return filepath.Join(l.InstallDir, spec.Name+"-original.out")
}

// TransformedExecutable returns the linked transformed executable path.
func (l Layout) TransformedExecutable(spec BenchmarkSpec) string {
	return filepath.Join(l.InstallDir, spec.Name+"-transformed.out")
}
