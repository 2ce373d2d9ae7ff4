// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "operation only",
			err:  New("load configuration"),
			want: "failed to load configuration",
		},
		{
			name: "operation and path",
			err:  New("load configuration").At("/etc/kernlet/config.cue"),
			want: "failed to load configuration: /etc/kernlet/config.cue",
		},
		{
			name: "operation and cause",
			err:  New("acquire sandbox lock").Because(errors.New("lock held")),
			want: "failed to acquire sandbox lock: lock held",
		},
		{
			name: "everything",
			err:  New("mount sandbox root").At("/srv/sandbox").Because(errors.New("no such directory")),
			want: "failed to mount sandbox root: /srv/sandbox: no such directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_HintsDoNotChangeMessage(t *testing.T) {
	err := New("parse seed manifest").Hint("Check the CUE syntax", "All paths must start with /")
	if got := err.Error(); got != "failed to parse seed manifest" {
		t.Errorf("Error() = %q, hints must not leak into the message", got)
	}
	if len(err.Hints) != 2 {
		t.Errorf("Hints = %d entries, want 2", len(err.Hints))
	}
}

func TestError_Unwrap(t *testing.T) {
	sentinel := errors.New("root cause")
	err := New("load configuration").Because(fmt.Errorf("reading file: %w", sentinel))

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should reach the root cause through Unwrap")
	}

	var target *Error
	wrapped := fmt.Errorf("outer: %w", error(err))
	if !errors.As(wrapped, &target) {
		t.Error("errors.As should find *Error inside a wrapped chain")
	}
	if target.Op != "load configuration" {
		t.Errorf("Op = %q, want %q", target.Op, "load configuration")
	}
}

func TestError_UnwrapNilCause(t *testing.T) {
	if got := New("something").Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestError_See(t *testing.T) {
	err := New("acquire sandbox lock").See(SandboxLocked)
	if err.Ref != SandboxLocked {
		t.Errorf("Ref = %d, want %d", err.Ref, SandboxLocked)
	}
	if Get(err.Ref) == nil {
		t.Error("Ref should resolve to a catalog page")
	}
}

func TestError_Details(t *testing.T) {
	tests := []struct {
		name        string
		err         *Error
		verbose     bool
		wantParts   []string
		rejectParts []string
	}{
		{
			name:        "nothing to add is empty",
			err:         New("load configuration"),
			rejectParts: []string{"failed", "•", "Error chain:"},
		},
		{
			name: "hints are bulleted",
			err: New("mount sandbox root").
				At("/srv/sandbox").
				Hint("Create the directory", "Or use the memory backend"),
			wantParts: []string{
				"  • Create the directory",
				"  • Or use the memory backend",
			},
			rejectParts: []string{"failed to mount sandbox root"},
		},
		{
			name: "terse hides the chain",
			err: New("load configuration").
				Because(fmt.Errorf("reading file: %w", errors.New("permission denied"))),
			verbose:     false,
			rejectParts: []string{"Error chain:"},
		},
		{
			name: "verbose numbers the chain",
			err: New("load configuration").
				Because(fmt.Errorf("reading file: %w", errors.New("permission denied"))),
			verbose: true,
			wantParts: []string{
				"Error chain:",
				"1. reading file: permission denied",
				"2. permission denied",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Details(tt.verbose)
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Details(%v) missing %q:\n%s", tt.verbose, part, got)
				}
			}
			for _, part := range tt.rejectParts {
				if strings.Contains(got, part) {
					t.Errorf("Details(%v) should not contain %q:\n%s", tt.verbose, part, got)
				}
			}
		})
	}
}
