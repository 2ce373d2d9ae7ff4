// SPDX-License-Identifier: MPL-2.0

package kernel

import (
	"errors"
	"fmt"
)

const (
	// StateBooting indicates the kernel instance was created but Boot()
	// has not completed.
	StateBooting State = iota
	// StateRunning indicates the kernel is dispatching commands.
	StateRunning
	// StatePanic is terminal: a builtin fault escaped and the kernel
	// refuses further dispatches.
	StatePanic
	// StateShutdown is terminal: the kernel was closed.
	StateShutdown
)

// ErrInvalidState is returned when a State value is not one of the
// defined lifecycle states.
var ErrInvalidState = errors.New("invalid state")

type (
	// State represents the lifecycle state of a kernel.
	State int32

	// InvalidStateError is returned when a State value is not recognized.
	// It wraps ErrInvalidState for errors.Is() compatibility.
	InvalidStateError struct {
		Value State
	}
)

// String returns a human-readable representation of the kernel state.
func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateRunning:
		return "running"
	case StatePanic:
		return "panic"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d (valid: 0=booting, 1=running, 2=panic, 3=shutdown)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Validate returns nil if the State is one of the defined lifecycle
// states, or an error wrapping ErrInvalidState if it is not.
func (s State) Validate() error {
	switch s {
	case StateBooting, StateRunning, StatePanic, StateShutdown:
		return nil
	default:
		return &InvalidStateError{Value: s}
	}
}

// IsTerminal returns true if the state is a terminal state (Panic or
// Shutdown).
func (s State) IsTerminal() bool {
	return s == StatePanic || s == StateShutdown
}
