// SPDX-License-Identifier: MPL-2.0

package builtin

import "context"

// Command defines the interface for console builtins.
// Each verb (ls, cat, echo, rm) implements this interface.
type Command interface {
	// Name returns the verb that selects this command (e.g. "ls", "cat").
	Name() string

	// Run executes the command with the raw argument remainder of the
	// command line: everything after the first space, unmodified. It may
	// be empty. Run reports failures through the Result, never by error.
	Run(ctx context.Context, arg string) Result
}
