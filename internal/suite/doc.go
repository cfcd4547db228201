// SPDX-License-Identifier: MPL-2.0

// Package suite defines the benchmark table swept by benchsweep: each
// benchmark's name and size class, the per-benchmark actions, and the
// install-directory artifact layout shared with the pass runner script.
package suite
