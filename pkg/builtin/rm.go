// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"

	"github.com/spf13/afero"
)

// rmCommand deletes a sandbox file.
type rmCommand struct {
	fsys afero.Fs
}

// newRmCommand creates the rm command over the given sandbox filesystem.
func newRmCommand(fsys afero.Fs) *rmCommand {
	return &rmCommand{fsys: fsys}
}

// Name returns the command verb.
func (c *rmCommand) Name() string { return "rm" }

// Run deletes the file named by arg. The diagnostic does not
// distinguish a missing file from one that cannot be removed.
func (c *rmCommand) Run(_ context.Context, arg string) Result {
	if arg == "" {
		return Fail("Usage: rm <filename>")
	}
	if err := c.fsys.Remove(arg); err != nil {
		return Fail("Failed to delete file")
	}
	return OK("")
}
