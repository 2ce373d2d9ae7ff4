// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// lsCommand lists the entries of a sandbox directory.
type lsCommand struct {
	fsys afero.Fs
}

// newLsCommand creates the ls command over the given sandbox filesystem.
func newLsCommand(fsys afero.Fs) *lsCommand {
	return &lsCommand{fsys: fsys}
}

// Name returns the command verb.
func (c *lsCommand) Name() string { return "ls" }

// Run lists the directory named by arg, defaulting to the sandbox root.
// Each entry produces one line: "d <name>" for directories, "- <name>"
// for everything else, or the bare name when the entry cannot be
// stat'ed. Entries are sorted so repeated listings are identical.
func (c *lsCommand) Run(_ context.Context, arg string) Result {
	dirPath := arg
	if dirPath == "" {
		dirPath = "/"
	}

	dir, err := c.fsys.Open(dirPath)
	if err != nil {
		return Failf("Failed to open directory: %s", dirPath)
	}
	names, readErr := dir.Readdirnames(-1)
	if err := dir.Close(); err != nil && readErr == nil {
		readErr = err
	}
	if readErr != nil {
		return Failf("Failed to open directory: %s", dirPath)
	}
	sort.Strings(names)

	var out strings.Builder
	for _, name := range names {
		info, err := c.fsys.Stat(path.Join(dirPath, name))
		switch {
		case err != nil:
			out.WriteString(name)
		case info.IsDir():
			out.WriteString("d " + name)
		default:
			out.WriteString("- " + name)
		}
		out.WriteByte('\n')
	}
	return OK(out.String())
}
