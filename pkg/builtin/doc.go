// SPDX-License-Identifier: MPL-2.0

// Package builtin provides the console commands dispatched inside the
// kernlet sandbox runtime.
//
// The command set is closed: ls, cat, echo, and rm. Each command
// implements the Command interface and operates exclusively on the
// sandbox filesystem (an afero.Fs) injected at construction, so the same
// implementations serve the in-memory backend and a jailed host mount.
//
// # Dispatch Contract
//
// A command line is split on the first space only. The part before the
// space is the verb, matched case-sensitively against the registry; the
// remainder is handed to the command verbatim, including any further
// whitespace. A line without a space is all verb. An unrecognized verb
// yields {-1, "Unknown command"} without touching the filesystem.
//
// # Results
//
// Every dispatch produces a Result with a status code and an output
// string. Code 0 means success and Output carries the command's payload
// (possibly empty). Code -1 means failure and Output carries a
// human-readable diagnostic such as "Failed to open file". Commands
// never return Go errors across this surface; failures are data.
//
// Sandbox paths are slash-separated regardless of host platform.
package builtin
