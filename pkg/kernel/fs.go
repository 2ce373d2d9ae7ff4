// SPDX-License-Identifier: MPL-2.0

package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"kernlet/internal/telemetry"
)

// ErrNotRunning is returned by passthrough filesystem operations on a
// kernel that is not in StateRunning.
var ErrNotRunning = errors.New("kernel is not running")

// The passthrough operations below give hosts direct access to the
// sandbox filesystem, bypassing the console dispatcher. They never
// touch LastStatus; only dispatched command lines do.

func (k *Kernel) ensureRunning() error {
	if s := k.State(); s != StateRunning {
		return fmt.Errorf("%w (state %s)", ErrNotRunning, s)
	}
	return nil
}

// WriteFile writes content to a sandbox file, creating or truncating it.
func (k *Kernel) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := k.ensureRunning(); err != nil {
		return err
	}
	err := afero.WriteFile(k.fsys, path, content, 0o644)
	if err != nil {
		err = fmt.Errorf("writing %s: %w", path, err)
	}
	telemetry.RecordFileOp(ctx, "write", path, err)
	return err
}

// ReadFile reads a whole sandbox file into an OwnedBuffer. An existing
// empty file yields a non-nil buffer of length zero; only errors yield
// a nil buffer. The caller owns the returned buffer.
func (k *Kernel) ReadFile(ctx context.Context, path string) (*OwnedBuffer, error) {
	if err := k.ensureRunning(); err != nil {
		return nil, err
	}
	content, err := afero.ReadFile(k.fsys, path)
	if err != nil {
		err = fmt.Errorf("reading %s: %w", path, err)
		telemetry.RecordFileOp(ctx, "read", path, err)
		return nil, err
	}
	telemetry.RecordFileOp(ctx, "read", path, nil)
	return newOwnedBuffer(string(content)), nil
}

// Exists reports whether a sandbox path exists. A kernel that is not
// running reports false.
func (k *Kernel) Exists(ctx context.Context, path string) bool {
	if err := k.ensureRunning(); err != nil {
		return false
	}
	_, err := k.fsys.Stat(path)
	telemetry.RecordFileOp(ctx, "exists", path, nil)
	return err == nil
}

// DeleteFile removes a sandbox file.
func (k *Kernel) DeleteFile(ctx context.Context, path string) error {
	if err := k.ensureRunning(); err != nil {
		return err
	}
	err := k.fsys.Remove(path)
	if err != nil {
		err = fmt.Errorf("deleting %s: %w", path, err)
	}
	telemetry.RecordFileOp(ctx, "delete", path, err)
	return err
}

// ListDirectory lists a sandbox directory as newline-terminated bare
// names, sorted, without the type markers the ls builtin adds. An empty
// directory yields a non-nil buffer of length zero. The caller owns the
// returned buffer.
func (k *Kernel) ListDirectory(ctx context.Context, path string) (*OwnedBuffer, error) {
	if err := k.ensureRunning(); err != nil {
		return nil, err
	}

	dir, err := k.fsys.Open(path)
	if err != nil {
		err = fmt.Errorf("listing %s: %w", path, err)
		telemetry.RecordFileOp(ctx, "list", path, err)
		return nil, err
	}
	names, readErr := dir.Readdirnames(-1)
	if err := dir.Close(); err != nil && readErr == nil {
		readErr = err
	}
	if readErr != nil {
		readErr = fmt.Errorf("listing %s: %w", path, readErr)
		telemetry.RecordFileOp(ctx, "list", path, readErr)
		return nil, readErr
	}
	sort.Strings(names)

	var out strings.Builder
	for _, name := range names {
		out.WriteString(name)
		out.WriteByte('\n')
	}
	telemetry.RecordFileOp(ctx, "list", path, nil)
	return newOwnedBuffer(out.String()), nil
}
