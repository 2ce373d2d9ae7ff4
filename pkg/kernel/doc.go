// SPDX-License-Identifier: MPL-2.0

// Package kernel implements the boundary between a host program and the
// kernlet sandbox runtime.
//
// A Kernel owns one sandbox filesystem and the console dispatcher over
// it. Hosts boot it, feed it command lines, and read back status codes
// and captured output; they never reach the dispatcher or the builtins
// directly. The kernel also exposes passthrough file operations that
// skip the console entirely.
//
// # Status Tracking
//
// Every dispatched line, including lines rejected before dispatch,
// updates the kernel's last status: 0 for success, -1 for any failure.
// LastStatus reflects only the most recent dispatch. Passthrough file
// operations never change it.
//
// # Output Ownership
//
// Captured output crosses the boundary as an OwnedBuffer, allocated per
// call and never retained by the kernel. Commands that produce no
// output yield a nil buffer instead of an empty allocation. The caller
// releases the buffer exactly once; releases after the first fail with
// ErrBufferReleased.
//
// # Lifecycle
//
// Booting → Running → Shutdown, with Panic as the failure terminal. A
// panic escaping a builtin is recovered, the dispatch fails, and the
// kernel stops accepting further commands. Errors never propagate out
// of the dispatch path; hosts observe failures as status codes.
package kernel
