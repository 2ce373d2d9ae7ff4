// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitError(t *testing.T) {
	t.Parallel()

	underlying := errors.New("boom")
	err := &ExitError{Code: 3, Err: underlying}
	if got := err.Error(); got != "boom" {
		t.Errorf("Error() = %q, want %q", got, "boom")
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() does not see the wrapped error")
	}

	bare := &ExitError{Code: 2}
	if got := bare.Error(); got != "exit status 2" {
		t.Errorf("Error() without cause = %q, want %q", got, "exit status 2")
	}

	// The exit code survives further wrapping, which is how Execute finds it.
	wrapped := fmt.Errorf("running command: %w", err)
	var exitErr *ExitError
	if !errors.As(wrapped, &exitErr) {
		t.Fatal("errors.As() failed to unwrap *ExitError")
	}
	if exitErr.Code != 3 {
		t.Errorf("unwrapped Code = %d, want 3", exitErr.Code)
	}
}
