// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// BackendMemory mounts a fresh in-memory filesystem for the sandbox.
	BackendMemory Backend = "memory"
	// BackendHost jails the sandbox into a directory on the host filesystem.
	BackendHost Backend = "host"

	// LevelDebug enables per-dispatch console logging.
	LevelDebug Level = "debug"
	// LevelInfo logs lifecycle events and command failures.
	LevelInfo Level = "info"
	// LevelWarn logs warnings and command failures only.
	LevelWarn Level = "warn"
	// LevelError logs command failures only.
	LevelError Level = "error"
)

// Sentinel errors wrapped by the validation error types below, for
// errors.Is checks across package boundaries.
var (
	ErrInvalidBackend          = errors.New("invalid filesystem backend")
	ErrInvalidLevel            = errors.New("invalid console level")
	ErrInvalidSandboxRoot      = errors.New("invalid sandbox root")
	ErrInvalidSeedManifest     = errors.New("invalid seed manifest path")
	ErrInvalidConsoleConfig    = errors.New("invalid console config")
	ErrInvalidFilesystemConfig = errors.New("invalid filesystem config")
	ErrInvalidConfig           = errors.New("invalid config")
)

type (
	// Backend selects the filesystem implementation the kernel mounts.
	Backend string

	// Level specifies the minimum severity the console logger emits.
	Level string

	// InvalidBackendError reports a Backend value outside the defined set.
	InvalidBackendError struct {
		Value Backend
	}

	// InvalidLevelError reports a console Level value outside the defined set.
	InvalidLevelError struct {
		Value Level
	}

	// InvalidSandboxRootError reports a missing or unusable sandbox root.
	InvalidSandboxRootError struct {
		Value string
	}

	// InvalidSeedManifestError reports a whitespace-only seed manifest path.
	InvalidSeedManifestError struct {
		Value string
	}

	// InvalidConsoleConfigError collects the field errors of an invalid
	// ConsoleConfig.
	InvalidConsoleConfigError struct {
		FieldErrors []error
	}

	// InvalidFilesystemConfigError collects the field errors of an invalid
	// FilesystemConfig.
	InvalidFilesystemConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects the field errors of an invalid Config,
	// across all of its sections.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Console configures the interactive console and its logging.
		Console ConsoleConfig `json:"console" mapstructure:"console"`
		// Filesystem configures the sandbox filesystem backend.
		Filesystem FilesystemConfig `json:"filesystem" mapstructure:"filesystem"`
		// Telemetry configures OTLP metrics and log export.
		Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`
		// REPL configures the interactive line editor.
		REPL REPLConfig `json:"repl" mapstructure:"repl"`
		// SSH configures the network console server.
		SSH SSHConfig `json:"ssh" mapstructure:"ssh"`
	}

	// ConsoleConfig configures console logging.
	ConsoleConfig struct {
		// Level sets the minimum severity the console logger emits.
		Level Level `json:"level" mapstructure:"level"`
	}

	// FilesystemConfig configures the sandbox filesystem backend.
	FilesystemConfig struct {
		// Backend selects "memory" or "host".
		Backend Backend `json:"backend" mapstructure:"backend"`
		// Root is the host directory jailed as the sandbox root (host backend only).
		Root string `json:"root" mapstructure:"root"`
		// ReadOnly mounts the sandbox read-only.
		ReadOnly bool `json:"read_only" mapstructure:"read_only"`
		// Lock guards the sandbox root against concurrent kernels (host backend only).
		Lock bool `json:"lock" mapstructure:"lock"`
		// Seed is an optional seed manifest applied before boot.
		Seed string `json:"seed" mapstructure:"seed"`
	}

	// TelemetryConfig configures OTLP export. An empty endpoint disables export.
	TelemetryConfig struct {
		// Endpoint is the OTLP/HTTP collector host:port.
		Endpoint string `json:"endpoint" mapstructure:"endpoint"`
		// Insecure disables TLS for the exporter connection.
		Insecure bool `json:"insecure" mapstructure:"insecure"`
	}

	// REPLConfig configures the interactive line editor.
	REPLConfig struct {
		// Prompt is printed before each input line.
		Prompt string `json:"prompt" mapstructure:"prompt"`
		// History persists input lines across sessions.
		History bool `json:"history" mapstructure:"history"`
	}

	// SSHConfig configures the network console server.
	SSHConfig struct {
		// Addr is the listen address for `kernlet serve`.
		Addr string `json:"addr" mapstructure:"addr"`
		// HostKey is the host key path; generated on first start when empty.
		HostKey string `json:"host_key" mapstructure:"host_key"`
	}
)

func (b Backend) String() string { return string(b) }

// IsValid reports whether the Backend is one of the defined backends,
// with the validation errors when it is not.
func (b Backend) IsValid() (bool, []error) {
	switch b {
	case BackendMemory, BackendHost:
		return true, nil
	default:
		return false, []error{&InvalidBackendError{Value: b}}
	}
}

func (e *InvalidBackendError) Error() string {
	return fmt.Sprintf("invalid filesystem backend %q (valid: memory, host)", e.Value)
}

func (e *InvalidBackendError) Unwrap() error { return ErrInvalidBackend }

func (l Level) String() string { return string(l) }

// IsValid reports whether the Level is one of the defined console levels,
// with the validation errors when it is not.
func (l Level) IsValid() (bool, []error) {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true, nil
	default:
		return false, []error{&InvalidLevelError{Value: l}}
	}
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid console level %q (valid: debug, info, warn, error)", e.Value)
}

func (e *InvalidLevelError) Unwrap() error { return ErrInvalidLevel }

func (e *InvalidSandboxRootError) Error() string {
	if strings.TrimSpace(e.Value) == "" {
		return `invalid sandbox root: the "host" backend requires filesystem.root`
	}
	return fmt.Sprintf("invalid sandbox root %q", e.Value)
}

func (e *InvalidSandboxRootError) Unwrap() error { return ErrInvalidSandboxRoot }

func (e *InvalidSeedManifestError) Error() string {
	return fmt.Sprintf("invalid seed manifest path %q: non-empty value must not be whitespace-only", e.Value)
}

func (e *InvalidSeedManifestError) Unwrap() error { return ErrInvalidSeedManifest }

// IsValid reports whether the ConsoleConfig has valid fields.
func (c ConsoleConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConsoleConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConsoleConfigError) Error() string {
	return fmt.Sprintf("invalid console config: %d field error(s)", len(e.FieldErrors))
}

func (e *InvalidConsoleConfigError) Unwrap() error { return ErrInvalidConsoleConfig }

// IsValid reports whether the FilesystemConfig has valid fields. The host
// backend requires a sandbox root; paths must not be whitespace-only. Bool
// fields need no validation.
func (c FilesystemConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Backend.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	switch {
	case c.Backend == BackendHost && strings.TrimSpace(c.Root) == "":
		errs = append(errs, &InvalidSandboxRootError{Value: c.Root})
	case c.Root != "" && strings.TrimSpace(c.Root) == "":
		errs = append(errs, &InvalidSandboxRootError{Value: c.Root})
	}
	if c.Seed != "" && strings.TrimSpace(c.Seed) == "" {
		errs = append(errs, &InvalidSeedManifestError{Value: c.Seed})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidFilesystemConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidFilesystemConfigError) Error() string {
	return fmt.Sprintf("invalid filesystem config: %d field error(s)", len(e.FieldErrors))
}

func (e *InvalidFilesystemConfigError) Unwrap() error { return ErrInvalidFilesystemConfig }

// IsValid reports whether the Config has valid fields. The telemetry,
// REPL, and SSH sections have no invalid representable states at this
// level; their value constraints live in the CUE schema.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Console.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Filesystem.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the configuration used when no file, flag, or
// environment override supplies a value.
func DefaultConfig() *Config {
	return &Config{
		Console: ConsoleConfig{
			Level: LevelInfo,
		},
		Filesystem: FilesystemConfig{
			Backend: BackendMemory,
			Lock:    true,
		},
		REPL: REPLConfig{
			Prompt:  "> ",
			History: true,
		},
		SSH: SSHConfig{
			Addr: ":2222",
		},
	}
}
