// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests: Must* wrappers that fail the
// test on filesystem errors, executable stub scripts standing in for the
// toolchain, and a deterministic StepClock.
package testutil
