// SPDX-License-Identifier: MPL-2.0

package sshconsole

// State is the console server lifecycle state. The lifecycle only moves
// forward: a stopped or failed server is never restarted, a fresh one is
// created instead.
type State int32

const (
	// StateNew is the state before Start is called.
	StateNew State = iota
	// StateStarting covers listener setup until the serve loop is ready.
	StateStarting
	// StateRunning means the server is accepting sessions.
	StateRunning
	// StateStopping covers graceful shutdown.
	StateStopping
	// StateStopped is the terminal state after a clean shutdown.
	StateStopped
	// StateFailed is the terminal state after a start or serve failure.
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
