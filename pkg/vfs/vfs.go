// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// ErrNotDirectory is returned when a host mount root exists but is not
// a directory.
var ErrNotDirectory = errors.New("not a directory")

// Memory creates the in-memory sandbox filesystem, pre-seeded with the
// standard scratch directories.
func Memory() afero.Fs {
	fsys := afero.NewMemMapFs()
	for _, dir := range []string{"/tmp", "/home"} {
		// MkdirAll on a fresh MemMapFs cannot fail.
		_ = fsys.MkdirAll(dir, 0o755)
	}
	return fsys
}

// Host creates a sandbox filesystem jailed to the host directory root.
// Sandbox paths resolve inside root only; ".." cannot escape the jail.
func Host(root string) (afero.Fs, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("host root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("host root %s: %w", root, ErrNotDirectory)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), root), nil
}

// ReadOnly wraps a sandbox filesystem so every mutation fails. Reads
// pass through unchanged.
func ReadOnly(fsys afero.Fs) afero.Fs {
	return afero.NewReadOnlyFs(fsys)
}
