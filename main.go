// SPDX-License-Identifier: MPL-2.0

// Command benchsweep runs benchmark sweeps for the bound-check pass.
package main

import cmd "github.com/boundcheck/benchsweep/cmd/benchsweep"

func main() {
	cmd.Execute()
}
