// SPDX-License-Identifier: MPL-2.0

// Package sshconsole serves the sandbox console over SSH using the Wish
// library.
//
// Each session gets its own kernel over the server's shared sandbox
// filesystem: an interactive session runs a line-oriented console loop,
// while a session carrying a command ("ssh host 'cat /motd'") dispatches
// that single line and exits with a status derived from the result.
//
// The console is anonymous. The sandbox holds no host state, so the
// server sets no authentication handlers and accepts every connection.
package sshconsole
