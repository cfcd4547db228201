// SPDX-License-Identifier: MPL-2.0

// Package sweep drives a benchmark sweep of the bound-check pass: it resets
// the output directory, builds and installs the toolchain once, then walks
// the suite in declaration order running each requested action (process,
// stats, size, timing) and collecting every step's outcome in a Report.
//
// Subprocesses get DUMP_DST and any env_file values through a per-call
// environment; the driver never mutates its own process environment.
package sweep
