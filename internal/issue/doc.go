// SPDX-License-Identifier: MPL-2.0

// Package issue carries failure context from the lower layers to the CLI.
//
// Error attaches an operation, a path, and fix hints to a cause; See links
// it to a Page, a markdown help page the CLI renders after the error line
// for failure classes that deserve more than a one-line message.
package issue
