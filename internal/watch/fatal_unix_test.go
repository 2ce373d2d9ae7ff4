// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestFatalWatchError(t *testing.T) {
	t.Parallel()

	fatal := []error{
		syscall.ENOSPC,
		syscall.EMFILE,
		syscall.ENFILE,
		fmt.Errorf("fsnotify: %w", syscall.ENOSPC),
	}
	for _, err := range fatal {
		if !fatalWatchError(err) {
			t.Errorf("fatalWatchError(%v) = false, want true", err)
		}
	}

	recoverable := []error{
		syscall.EPERM,
		syscall.EACCES,
		errors.New("something went wrong"),
	}
	for _, err := range recoverable {
		if fatalWatchError(err) {
			t.Errorf("fatalWatchError(%v) = true, want false", err)
		}
	}
}
