// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for kernlet.
//
// This package implements the Cobra command hierarchy: the root command,
// one-shot dispatch (run), the interactive console (repl), the SSH console
// server (serve), the passthrough filesystem surface (fs), configuration
// management, environment health checks (doctor), and the embedded
// documentation viewer (docs).
package cmd
