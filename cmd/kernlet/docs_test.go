// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"

	"kernlet/docs"
)

func TestDocsCommand_Plain(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(quietConfig(), nil)
	if err := execRoot(app, "docs", "--plain"); err != nil {
		t.Fatalf("Execute(docs --plain) failed: %v", err)
	}
	if got := stdout.String(); got != docs.Console {
		t.Error("plain docs output differs from the embedded reference")
	}
}

func TestDocsCommand_Rendered(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(quietConfig(), nil)
	if err := execRoot(app, "docs"); err != nil {
		t.Fatalf("Execute(docs) failed: %v", err)
	}

	out := stdout.String()
	if out == "" {
		t.Fatal("rendered docs output is empty")
	}
	// The verbs survive rendering regardless of style.
	for _, token := range []string{"echo", "cat"} {
		if !strings.Contains(out, token) {
			t.Errorf("rendered docs missing %q", token)
		}
	}
}

func TestConsoleReferenceCoversTheVerbs(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"ls", "cat", "echo", "rm", "Unknown command"} {
		if !strings.Contains(docs.Console, token) {
			t.Errorf("console reference missing %q", token)
		}
	}
}
