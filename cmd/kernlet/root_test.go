// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"
)

func TestGetVersionString(t *testing.T) {
	// Swaps the build-time variables; not parallel.
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origVersion, origCommit, origDate })

	Version, Commit, BuildDate = "dev", "unknown", "unknown"
	if got, want := getVersionString(), "dev (built from source)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}

	Version, Commit, BuildDate = "1.2.3", "abc1234", "2026-08-25"
	if got, want := getVersionString(), "1.2.3 (commit: abc1234, built: 2026-08-25)"; got != want {
		t.Errorf("getVersionString() = %q, want %q", got, want)
	}
}

func TestNewRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(quietConfig(), nil)
	root := newRootCommand(app)

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "repl", "serve", "fs", "config", "doctor", "docs"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}

	for _, flag := range []string{"verbose", "config"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("root command missing persistent flag --%s", flag)
		}
	}
}

func TestRootHelp_MentionsQuickStart(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(quietConfig(), nil)
	root := newRootCommand(app)

	var sb strings.Builder
	root.SetOut(&sb)
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute(--help) failed: %v", err)
	}

	out := sb.String()
	for _, token := range []string{"Quick Start", "kernlet run", "kernlet repl", "kernlet serve"} {
		if !strings.Contains(out, token) {
			t.Errorf("help output missing %q", token)
		}
	}
}
