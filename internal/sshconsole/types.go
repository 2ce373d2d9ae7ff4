// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidServerConfig is the sentinel error wrapped by InvalidServerConfigError.
	ErrInvalidServerConfig = errors.New("invalid console server config")

	// ErrNilKernelFactory is returned by New when no kernel factory is given.
	ErrNilKernelFactory = errors.New("kernel factory must not be nil")
)

type (
	// Config holds immutable configuration for the console server.
	Config struct {
		// Addr is the listen address ("host:port"; port 0 auto-selects).
		Addr string
		// HostKeyPath is the server host key location. Wish generates a key
		// at this path on first start. Empty means an ephemeral in-memory
		// key per server instance.
		HostKeyPath string
		// Prompt is the interactive session prompt (default: "> ").
		Prompt string
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s).
		ShutdownTimeout time.Duration
		// StartupTimeout is the max time to wait for the server to be ready (default: 5s).
		StartupTimeout time.Duration
	}

	// InvalidServerConfigError is returned when a console server Config has
	// invalid fields. It wraps ErrInvalidServerConfig for errors.Is()
	// compatibility and collects field-level validation errors.
	InvalidServerConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":2222",
		Prompt:          "> ",
		ShutdownTimeout: 10 * time.Second,
		StartupTimeout:  5 * time.Second,
	}
}

// Validate returns nil if the Config is valid, or an error wrapping
// ErrInvalidServerConfig describing every invalid field.
func (c Config) Validate() error {
	var fieldErrors []error

	if strings.TrimSpace(c.Addr) == "" {
		fieldErrors = append(fieldErrors, errors.New("Addr must not be empty or whitespace-only"))
	}
	if c.HostKeyPath != "" && strings.TrimSpace(c.HostKeyPath) == "" {
		fieldErrors = append(fieldErrors, errors.New("HostKeyPath must not be whitespace-only"))
	}
	if c.ShutdownTimeout < 0 {
		fieldErrors = append(fieldErrors, fmt.Errorf("ShutdownTimeout must not be negative, got %v", c.ShutdownTimeout))
	}
	if c.StartupTimeout < 0 {
		fieldErrors = append(fieldErrors, fmt.Errorf("StartupTimeout must not be negative, got %v", c.StartupTimeout))
	}

	if len(fieldErrors) > 0 {
		return &InvalidServerConfigError{FieldErrors: fieldErrors}
	}
	return nil
}

// Error implements the error interface for InvalidServerConfigError.
func (e *InvalidServerConfigError) Error() string {
	return fmt.Sprintf("invalid console server config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidServerConfig for errors.Is() compatibility.
func (e *InvalidServerConfigError) Unwrap() error { return ErrInvalidServerConfig }
