// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

// InvalidWatchConfigError is returned when a Config has invalid fields.
// It wraps ErrInvalidWatchConfig for errors.Is() compatibility and
// collects field-level validation errors.
type InvalidWatchConfigError struct {
	FieldErrors []error
}

// Error implements the error interface for InvalidWatchConfigError.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error {
	return ErrInvalidWatchConfig
}

// Config holds the parameters for a Watcher.
type Config struct {
	// Patterns are doublestar-compatible glob patterns (e.g., "**/*.cue")
	// that select which files trigger callbacks. An empty slice watches all
	// non-ignored files.
	Patterns []string

	// Ignore are additional doublestar-compatible glob patterns for paths
	// that should never trigger callbacks. These are merged with the
	// built-in default ignores.
	Ignore []string

	// Debounce is the quiet period after the last event before the callback
	// fires. Zero or negative values fall back to defaultDebounce.
	Debounce time.Duration

	// ClearScreen controls whether the terminal is cleared before each
	// callback invocation by writing ANSI escape sequences to Stdout.
	// No terminal detection is performed; callers should ensure Stdout
	// is a real terminal when enabling this option.
	ClearScreen bool

	// BaseDir is the root directory to watch. All patterns are resolved
	// relative to this path. An empty value defaults to the current working
	// directory.
	BaseDir string

	// OnChange is called after the debounce window closes with the
	// deduplicated list of changed file paths (relative to BaseDir). A nil
	// callback is a no-op.
	OnChange func(ctx context.Context, changed []string) error

	// Stdout and Stderr are the output writers for informational and error
	// messages respectively. nil values default to os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Validate checks every pattern eagerly so invalid globs fail at construction
// time rather than silently failing to match at runtime. Empty BaseDir is
// valid (defaults to the working directory); whitespace-only is not.
func (c Config) Validate() error {
	var fieldErrs []error
	fieldErrs = append(fieldErrs, validatePatterns(c.Patterns, "watch")...)
	fieldErrs = append(fieldErrs, validatePatterns(c.Ignore, "ignore")...)
	if c.BaseDir != "" && strings.TrimSpace(c.BaseDir) == "" {
		fieldErrs = append(fieldErrs, errors.New("BaseDir must not be whitespace-only"))
	}
	if len(fieldErrs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: fieldErrs}
	}
	return nil
}

// validatePatterns checks that every pattern in the slice is a non-empty,
// valid doublestar glob. The label (e.g., "watch" or "ignore") is used in
// error messages.
func validatePatterns(patterns []string, label string) []error {
	var errs []error
	for _, pat := range patterns {
		if pat == "" {
			errs = append(errs, fmt.Errorf("empty %s pattern", label))
			continue
		}
		if _, err := doublestar.Match(pat, ""); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s pattern %q: %w", label, pat, err))
		}
	}
	return errs
}

// ForScript builds a Config that re-runs a kernlet script when it changes.
// It watches the script's directory for the script itself, the local config
// override, and any seed manifests. A configured seed file outside of the
// script's directory is not watched.
func ForScript(scriptPath, seedPath string) Config {
	dir := filepath.Dir(scriptPath)
	patterns := []string{filepath.Base(scriptPath), "kernlet.toml"}
	if seedPath != "" && filepath.Dir(seedPath) == dir {
		patterns = append(patterns, filepath.Base(seedPath))
	}
	return Config{
		BaseDir:  dir,
		Patterns: patterns,
	}
}
