// SPDX-License-Identifier: MPL-2.0

package builtin

import "fmt"

const (
	// StatusOK is the code reported by a successful command.
	StatusOK = 0
	// StatusError is the code reported by any failed command. The
	// console surface distinguishes only success from failure.
	StatusError = -1
)

// Result is the outcome of dispatching one command line. Output carries
// the command's payload on success, or a human-readable diagnostic on
// failure. Results are constructed fresh per dispatch and never reused.
type Result struct {
	Code   int
	Output string
}

// OK creates a successful Result carrying the given output.
func OK(output string) Result {
	return Result{Code: StatusOK, Output: output}
}

// Fail creates a failed Result carrying a diagnostic message.
func Fail(message string) Result {
	return Result{Code: StatusError, Output: message}
}

// Failf creates a failed Result with a formatted diagnostic message.
func Failf(format string, args ...any) Result {
	return Fail(fmt.Sprintf(format, args...))
}

// Success reports whether the result code indicates success.
func (r Result) Success() bool { return r.Code == StatusOK }
