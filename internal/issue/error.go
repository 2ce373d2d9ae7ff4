// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a failure with enough context to help the user fix it: the
// operation that failed, the path involved, short fix hints, and an
// optional catalog page the CLI renders after the error line.
//
// An Error is built by chaining and returned directly:
//
//	return issue.New("mount sandbox root").
//		At(cfg.Root).
//		Hint("Create the directory or switch to the memory backend").
//		See(issue.SandboxRootNotFound).
//		Because(statErr)
type Error struct {
	// Op is what was being attempted, as a verb phrase
	// ("load configuration", "acquire sandbox lock").
	Op string

	// Path is the file or directory involved, when there is one.
	Path string

	// Hints are short fix suggestions shown under the error message.
	Hints []string

	// Ref is the catalog page for this failure class, or 0.
	Ref ID

	// Err is the underlying cause.
	Err error
}

// New starts an Error for the given operation.
func New(op string) *Error {
	return &Error{Op: op}
}

// At records the path involved in the failure.
func (e *Error) At(path string) *Error {
	e.Path = path
	return e
}

// Hint appends fix suggestions.
func (e *Error) Hint(hints ...string) *Error {
	e.Hints = append(e.Hints, hints...)
	return e
}

// See records the catalog page for this failure class.
func (e *Error) See(id ID) *Error {
	e.Ref = id
	return e
}

// Because records the underlying cause.
func (e *Error) Because(err error) *Error {
	e.Err = err
	return e
}

// Error returns "failed to <op>[: <path>][: <cause>]".
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("failed to ")
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Details returns the supplementary lines for the error: the hint
// bullets, and with verbose set the full cause chain, one numbered line
// per wrapped error. The result starts with a newline so it appends
// directly after the message, and is empty when there is nothing to add.
func (e *Error) Details(verbose bool) string {
	var b strings.Builder

	if len(e.Hints) > 0 {
		b.WriteString("\n")
		for _, hint := range e.Hints {
			b.WriteString("\n  • ")
			b.WriteString(hint)
		}
	}

	if verbose && e.Err != nil {
		b.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Err; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}

	return b.String()
}
