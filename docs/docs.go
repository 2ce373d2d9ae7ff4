// SPDX-License-Identifier: MPL-2.0

// Package docs holds the embedded user documentation rendered by the CLI.
package docs

import _ "embed"

// Console is the console reference shown by `kernlet docs`.
//
//go:embed console.md
var Console string
