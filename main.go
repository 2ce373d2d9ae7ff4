// SPDX-License-Identifier: MPL-2.0

// Package main is the entry point for the kernlet command-line application.
package main

import cmd "kernlet/cmd/kernlet"

func main() {
	cmd.Execute()
}
