// SPDX-License-Identifier: MPL-2.0

package seedfile

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"kernlet/pkg/cueutil"
)

//go:embed seed_schema.cue
var schemaSrc string

// seedSchema is compiled once; every manifest decodes against it.
var seedSchema = cueutil.MustLoad(schemaSrc, "#Seed")

// ErrInvalidSeedPath is returned when a seed entry uses a path that is not
// absolute or is otherwise unusable inside the sandbox.
var ErrInvalidSeedPath = errors.New("invalid seed path")

// Seed describes the initial contents of a sandbox filesystem.
type Seed struct {
	// Dirs lists directories to create, in manifest order.
	Dirs []string `json:"dirs,omitempty"`

	// Files maps absolute sandbox paths to their initial contents.
	Files map[string]string `json:"files,omitempty"`

	// FilePath is the manifest location this seed was parsed from, if any.
	FilePath string `json:"-"`
}

// Parse reads and parses a seed manifest from the given path.
func Parse(p string) (*Seed, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed manifest at %s: %w", p, err)
	}

	return ParseBytes(data, p)
}

// ParseBytes parses seed manifest content from bytes.
func ParseBytes(data []byte, p string) (*Seed, error) {
	s, err := cueutil.Decode[Seed](seedSchema, data, cueutil.WithFilename(p))
	if err != nil {
		return nil, err
	}
	s.FilePath = p

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	return s, nil
}

// Validate checks path constraints the schema also enforces, so that seeds
// constructed in Go get the same guarantees as parsed ones.
func (s *Seed) Validate() error {
	for i, dir := range s.Dirs {
		if err := checkPath(dir); err != nil {
			return fmt.Errorf("dirs[%d]: %w", i, err)
		}
	}
	for p := range s.Files {
		if err := checkPath(p); err != nil {
			return fmt.Errorf("files[%q]: %w", p, err)
		}
	}
	return nil
}

// Apply creates the seed's directories and files on the given filesystem.
// Directories are created in manifest order; files in sorted path order, with
// missing parents created as needed. Existing files are overwritten.
func (s *Seed) Apply(fsys afero.Fs) error {
	for _, dir := range s.Dirs {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	for _, p := range slices.Sorted(maps.Keys(s.Files)) {
		if parent := path.Dir(p); parent != "/" {
			if err := fsys.MkdirAll(parent, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", parent, err)
			}
		}
		if err := afero.WriteFile(fsys, p, []byte(s.Files[p]), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
	}

	return nil
}

func checkPath(p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w: %q is not absolute", ErrInvalidSeedPath, p)
	}
	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidSeedPath, p)
	}
	return nil
}
