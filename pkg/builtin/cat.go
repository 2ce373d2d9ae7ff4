// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"io"

	"github.com/spf13/afero"
)

// catCommand prints the contents of a sandbox file.
type catCommand struct {
	fsys afero.Fs
}

// newCatCommand creates the cat command over the given sandbox filesystem.
func newCatCommand(fsys afero.Fs) *catCommand {
	return &catCommand{fsys: fsys}
}

// Name returns the command verb.
func (c *catCommand) Name() string { return "cat" }

// Run reads the file named by arg and returns its raw contents as the
// result output. The contents are passed through byte for byte; binary
// data is not rejected.
func (c *catCommand) Run(_ context.Context, arg string) Result {
	if arg == "" {
		return Fail("Usage: cat <filename>")
	}

	f, err := c.fsys.Open(arg)
	if err != nil {
		return Fail("Failed to open file")
	}
	content, readErr := io.ReadAll(f)
	if err := f.Close(); err != nil && readErr == nil {
		readErr = err
	}
	if readErr != nil {
		return Fail("Failed to read file")
	}
	return OK(string(content))
}
