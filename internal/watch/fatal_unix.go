// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// fatalErrnos are the errno values that mean the watcher cannot recover.
// On Linux these are the inotify exhaustion cases: the watch limit
// (fs.inotify.max_user_watches), the per-process fd limit, and the
// system-wide fd limit.
var fatalErrnos = []error{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}

// fatalWatchError reports whether err means the watcher is broken for
// good. Transient errors (permissions, vanished files) are not fatal;
// Run logs those and keeps going.
func fatalWatchError(err error) bool {
	for _, errno := range fatalErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
