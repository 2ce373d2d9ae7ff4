// SPDX-License-Identifier: MPL-2.0

package kernel

import (
	"errors"
	"sync"
)

// ErrBufferReleased is returned when an OwnedBuffer is released more
// than once.
var ErrBufferReleased = errors.New("buffer already released")

// OwnedBuffer carries captured output across the kernel boundary with
// explicit ownership transfer: the kernel allocates it, hands it to the
// caller, and keeps no reference. The caller must call Release exactly
// once when done; a second Release is reported, never a double free.
//
// The backing array is one byte longer than the content and ends with a
// NUL terminator, so embedders can hand the bytes to C-string consumers
// without copying. Len and Bytes exclude the terminator.
type OwnedBuffer struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

// newOwnedBuffer allocates a buffer holding s plus a NUL terminator.
func newOwnedBuffer(s string) *OwnedBuffer {
	data := make([]byte, len(s)+1)
	copy(data, s)
	return &OwnedBuffer{data: data}
}

// Len returns the content length in bytes, excluding the NUL terminator.
// A released buffer reports zero.
func (b *OwnedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return 0
	}
	return len(b.data) - 1
}

// Bytes returns the buffer content without the NUL terminator. The
// returned slice aliases the backing array and is only valid until
// Release. A released buffer returns nil.
func (b *OwnedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	return b.data[:len(b.data)-1]
}

// String returns the buffer content as a string. A released buffer
// returns the empty string.
func (b *OwnedBuffer) String() string {
	return string(b.Bytes())
}

// Released reports whether the buffer has been released.
func (b *OwnedBuffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Release returns the buffer's memory to the runtime. Calling it a
// second time returns ErrBufferReleased and has no other effect.
func (b *OwnedBuffer) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrBufferReleased
	}
	b.released = true
	b.data = nil
	return nil
}
