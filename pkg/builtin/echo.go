// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// echoCommand echoes its argument, or writes it to a sandbox file when
// the argument contains a redirection.
type echoCommand struct {
	fsys afero.Fs
}

// newEchoCommand creates the echo command over the given sandbox filesystem.
func newEchoCommand(fsys afero.Fs) *echoCommand {
	return &echoCommand{fsys: fsys}
}

// Name returns the command verb.
func (c *echoCommand) Name() string { return "echo" }

// Run echoes arg unchanged when it contains no ">". Otherwise the first
// ">" splits it into content and target filename: the content loses
// trailing spaces and tabs, the filename loses leading ones, and the
// content is written to the file, truncating or creating it. There is
// no escaping; any later ">" belongs to the filename.
func (c *echoCommand) Run(_ context.Context, arg string) Result {
	text, file, found := strings.Cut(arg, ">")
	if !found {
		return OK(arg)
	}

	text = strings.TrimRight(text, " \t")
	file = strings.TrimLeft(file, " \t")

	f, err := c.fsys.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return Fail("Failed to open file for writing")
	}
	_, writeErr := io.WriteString(f, text)
	if err := f.Close(); err != nil && writeErr == nil {
		writeErr = err
	}
	if writeErr != nil {
		return Fail("Failed to open file for writing")
	}
	return OK("")
}
