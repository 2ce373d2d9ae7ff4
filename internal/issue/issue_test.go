// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestGet_KnownIDs(t *testing.T) {
	for _, id := range []ID{
		ConfigLoadFailed,
		ConfigInvalid,
		SandboxRootNotFound,
		SandboxLocked,
		SeedParseError,
		ConsoleServerStartFailed,
	} {
		p := Get(id)
		if p == nil {
			t.Errorf("Get(%d) returned nil", id)
			continue
		}
		if p.ID() != id {
			t.Errorf("Get(%d).ID() = %d", id, p.ID())
		}
		if p.Markdown() == "" {
			t.Errorf("Get(%d).Markdown() is empty", id)
		}
	}
}

func TestGet_UnknownID(t *testing.T) {
	if p := Get(ID(999)); p != nil {
		t.Errorf("Get(999) = %v, want nil", p)
	}
}

func TestAll_SortedAndComplete(t *testing.T) {
	pages := All()
	if len(pages) != len(catalog) {
		t.Fatalf("All() returned %d pages, want %d", len(pages), len(catalog))
	}
	for i := 1; i < len(pages); i++ {
		if pages[i-1].ID() >= pages[i].ID() {
			t.Errorf("All() not sorted: id %d before id %d", pages[i-1].ID(), pages[i].ID())
		}
	}
}

func TestPage_EveryBodyLeadsWithAHeading(t *testing.T) {
	for _, p := range All() {
		body := strings.TrimSpace(p.Markdown())
		if !strings.HasPrefix(body, "# ") {
			t.Errorf("page %d does not start with a heading: %q", p.ID(), body[:min(20, len(body))])
		}
	}
}

func TestPage_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, style string) (string, error) {
		return "rendered:" + style + ":" + in, nil
	}

	p := Get(SandboxRootNotFound)
	out, err := p.Render("dark")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.HasPrefix(out, "rendered:dark:") {
		t.Errorf("Render did not use the injected renderer: %q", out[:min(30, len(out))])
	}
	if !strings.Contains(out, "Sandbox root not found") {
		t.Error("rendered output should contain the page title")
	}
}

func TestPage_RenderError(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, style string) (string, error) {
		return "", errors.New("style not found")
	}

	if _, err := Get(SandboxLocked).Render("bogus"); err == nil {
		t.Error("Render should propagate renderer errors")
	}
}
