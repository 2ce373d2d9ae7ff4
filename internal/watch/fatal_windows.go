// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// fatalErrnos are the Win32 error codes that mean the watcher cannot
// recover. fsnotify uses ReadDirectoryChangesW on Windows, which has no
// inotify-style watch limits, but handle exhaustion, an invalidated
// directory handle (the watched directory was deleted or unmounted), and
// notification buffer allocation failures all leave it broken.
var fatalErrnos = []error{
	syscall.Errno(4), // ERROR_TOO_MANY_OPEN_FILES
	syscall.Errno(6), // ERROR_INVALID_HANDLE
	syscall.Errno(8), // ERROR_NOT_ENOUGH_MEMORY
}

// fatalWatchError reports whether err means the watcher is broken for
// good. Transient errors are not fatal; Run logs those and keeps going.
func fatalWatchError(err error) bool {
	for _, errno := range fatalErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
