// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for benchsweep.
//
// The root command wires configuration loading, styled output and exit
// codes; subcommands run sweeps, list benchmarks, inspect configuration,
// read compile statistics dumps, show run history and explain issues.
package cmd
