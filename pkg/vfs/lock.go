// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock file kept at the top of a
// host-mounted sandbox root.
const LockFileName = ".kernlet.lock"

// ErrLocked is returned when another process already holds the sandbox
// lock.
var ErrLocked = errors.New("sandbox root locked by another process")

// Lock guards a host-mounted sandbox root against concurrent kernels.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes a non-blocking exclusive lock on the root's lock
// file, creating it if needed. Returns ErrLocked when another process
// holds it.
func AcquireLock(root string) (*Lock, error) {
	fl := flock.New(filepath.Join(root, LockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring sandbox lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", fl.Path(), ErrLocked)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.fl.Path() }

// Release drops the lock. Releasing an already released lock is a
// no-op.
func (l *Lock) Release() error { return l.fl.Unlock() }
