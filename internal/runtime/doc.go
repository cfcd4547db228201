// SPDX-License-Identifier: MPL-2.0

// Package runtime provides subprocess execution for the benchmark sweep.
//
// Two runtime implementations are available:
//   - native: executes a program directly with os/exec
//   - virtual: interprets a shell script in-process with mvdan/sh
//
// Both implement the Runtime interface with Name(), Execute(), Available() and
// Validate(), plus CapturingRuntime for output capture.
//
// Environment variables are passed per call through ExecutionContext.Env and
// layered over the host environment by BuildEnv. Nothing in this package
// modifies the process environment.
package runtime
