// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"kernlet/internal/config"
)

// historyFileName is the REPL history file kept under the config directory.
const historyFileName = ".kernlet_history"

// newReplCommand creates the `kernlet repl` command: an interactive console
// over a single kernel.
func newReplCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Open an interactive console on a fresh kernel",
		Long: `Boot a kernel per the resolved configuration and dispatch command
lines read interactively. 'exit', 'quit', Ctrl+C, and Ctrl+D close
the console without reaching the kernel. Input history persists
across sessions unless disabled in config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfigOrDefaults(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return runRepl(cmd.Context(), app, cfg)
		},
	}
}

// runRepl runs the interactive line loop: read a line, dispatch it, print
// the captured output.
func runRepl(ctx context.Context, app *App, cfg *config.Config) error {
	defer setupTelemetry(ctx, app, cfg)()

	k, err := bootKernel(ctx, cfg, kernelLogger(app.stderr, cfg.Console.Level))
	if err != nil {
		return err
	}
	defer func() { _ = k.Close() }() // Session teardown; error non-critical

	line := liner.NewLiner()
	defer func() { _ = line.Close() }() // Restores terminal mode; error non-critical
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeVerb(k.Verbs()))

	historyPath := replHistoryPath(cfg)
	if historyPath != "" {
		loadHistory(line, historyPath)
		defer saveHistory(line, historyPath)
	}

	fmt.Fprintf(app.stdout, "kernlet console (kernel %s)\n", k.Version())
	fmt.Fprintln(app.stdout, "Type 'exit' or Ctrl-D to close the console.")

	for {
		input, err := line.Prompt(cfg.REPL.Prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(app.stdout, "Aborted")
				return nil
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(app.stdout)
				return nil
			}
			return fmt.Errorf("reading line: %w", err)
		}

		trimmed := strings.TrimSpace(input)
		switch trimmed {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		line.AppendHistory(trimmed)

		_, buf := k.RunCapturing(ctx, trimmed)
		if buf != nil {
			printBuffer(app.stdout, buf)
		}
	}
}

// completeVerb offers the console verbs and the host-side exit words as
// completions for the first word of the line.
func completeVerb(verbs []string) liner.Completer {
	words := make([]string, 0, len(verbs)+2)
	for _, v := range verbs {
		words = append(words, v+" ")
	}
	words = append(words, "exit", "quit")

	return func(line string) []string {
		if strings.Contains(line, " ") {
			return nil
		}
		var out []string
		for _, w := range words {
			if strings.HasPrefix(w, line) {
				out = append(out, w)
			}
		}
		return out
	}
}

// replHistoryPath locates the REPL history file under the config directory.
// History can be disabled in config; an undeterminable config dir just
// disables persistence for the session.
func replHistoryPath(cfg *config.Config) string {
	if !cfg.REPL.History {
		return ""
	}
	dir, err := config.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, historyFileName)
}

// loadHistory reads persisted history. A missing file is a fresh install.
func loadHistory(line *liner.State, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	_, _ = line.ReadHistory(f) //nolint:errcheck // Partial history beats none
	_ = f.Close()              //nolint:errcheck // Read-only handle
}

// saveHistory persists the session history, creating the config directory
// on first use. Persistence is best-effort; the console never fails over it.
func saveHistory(line *liner.State, path string) {
	if err := config.EnsureDir(); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	_, _ = line.WriteHistory(f) //nolint:errcheck // Best-effort persistence
	_ = f.Close()               //nolint:errcheck // Best-effort persistence
}
