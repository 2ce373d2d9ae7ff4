// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kernlet/internal/config"
	"kernlet/internal/watch"
	"kernlet/pkg/builtin"
	"kernlet/pkg/kernel"
)

// newRunCommand creates the `kernlet run` command: boot a kernel, dispatch
// one command line (or a script of them), print the captured output.
func newRunCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var (
		script    string
		watchMode bool
	)

	runCmd := &cobra.Command{
		Use:   "run [command line...]",
		Short: "Dispatch command lines against a fresh kernel",
		Long: `Boot a kernel per the resolved configuration, dispatch the given
command line, print its captured output, and exit non-zero if the
command failed. With --script, the non-empty, non-comment lines of
the file are dispatched in order against one kernel instead.

With --watch, the run repeats whenever watched files change: a script
watches its own directory (the script, kernlet.toml, a co-located
seed manifest); a plain command line watches the sandbox root, which
requires the host backend.`,
		Example: `  kernlet run ls /
  kernlet run echo hello sandbox
  kernlet run --script boot.knl
  kernlet run --watch --script boot.knl`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if script == "" && len(args) == 0 {
				return fmt.Errorf("nothing to run: give a command line or --script")
			}
			if script != "" && len(args) > 0 {
				return fmt.Errorf("--script and a command line are mutually exclusive")
			}

			cfg, err := app.loadConfigOrDefaults(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer setupTelemetry(cmd.Context(), app, cfg)()

			if watchMode {
				return runWatchMode(cmd.Context(), app, flags, cfg, script, args)
			}
			return runOnce(cmd.Context(), app, cfg, script, args)
		},
	}

	runCmd.Flags().StringVar(&script, "script", "", "dispatch the lines of this file instead of the arguments")
	runCmd.Flags().BoolVar(&watchMode, "watch", false, "re-run whenever watched files change")

	return runCmd
}

// runOnce boots a kernel, dispatches either the argument line or the
// script, and converts a failed dispatch into a non-zero process exit.
func runOnce(ctx context.Context, app *App, cfg *config.Config, script string, args []string) error {
	k, err := bootKernel(ctx, cfg, kernelLogger(app.stderr, cfg.Console.Level))
	if err != nil {
		return err
	}
	defer func() { _ = k.Close() }() // Invocation teardown; error non-critical

	if script != "" {
		return runScript(ctx, app, k, script)
	}

	line := strings.Join(args, " ")
	code, buf := k.RunCapturing(ctx, line)
	if buf != nil {
		printBuffer(app.stdout, buf)
	}
	if code != builtin.StatusOK {
		return &ExitError{Code: 1, Err: fmt.Errorf("command failed: %s", line)}
	}
	return nil
}

// runScript dispatches each non-empty, non-comment ('#') line of the file
// in order against the given kernel. Every line runs even after a failure;
// the process exits non-zero if any line failed.
func runScript(ctx context.Context, app *App, k *kernel.Kernel, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening script: %w", err)
	}
	defer func() { _ = f.Close() }() // Read-only handle; close error non-critical

	failed := 0
	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		code, buf := k.RunCapturing(ctx, line)
		if buf != nil {
			printBuffer(app.stdout, buf)
		}
		if code != builtin.StatusOK {
			failed++
			fmt.Fprintf(app.stderr, "%s %s:%d failed: %s\n", WarningStyle.Render("!"), path, lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	if failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d script line(s) failed", failed)}
	}
	return nil
}

// runWatchMode executes once immediately, then re-executes on every
// filesystem change until the context is cancelled. Each execution
// re-resolves configuration and boots a fresh kernel, so edits to the
// local override or the seed manifest take effect on the next change.
func runWatchMode(ctx context.Context, app *App, flags *rootFlagValues, cfg *config.Config, script string, args []string) error {
	var (
		wcfg   watch.Config
		target string
	)
	if script != "" {
		wcfg = watch.ForScript(script, cfg.Filesystem.Seed)
		target = script
	} else {
		if cfg.Filesystem.Backend != config.BackendHost {
			return fmt.Errorf("--watch without --script needs the host backend: the memory backend leaves nothing on disk to watch")
		}
		wcfg = watch.Config{BaseDir: cfg.Filesystem.Root}
		target = strings.Join(args, " ")
	}

	reexecute := func(ctx context.Context) error {
		cfg, err := app.loadConfigOrDefaults(ctx, flags)
		if err != nil {
			return err
		}
		return runOnce(ctx, app, cfg, script, args)
	}

	// Execute once immediately before starting the watcher.
	fmt.Fprintf(app.stdout, "%s Watch mode: initial execution of '%s'\n", VerboseHighlightStyle.Render("→"), target)
	if execErr := reexecute(ctx); execErr != nil {
		// Log but don't stop; the user may fix the error and save again.
		fmt.Fprintf(app.stderr, "%s Initial execution failed: %v\n", WarningStyle.Render("!"), execErr)
	}

	fmt.Fprintf(app.stdout, "\n%s Watching for changes (Ctrl+C to stop)...\n\n", VerboseHighlightStyle.Render("→"))

	wcfg.Stdout = app.stdout
	wcfg.Stderr = app.stderr
	wcfg.OnChange = func(ctx context.Context, changed []string) error {
		fmt.Fprintf(app.stdout, "%s Detected %d change(s). Re-executing '%s'...\n",
			VerboseHighlightStyle.Render("→"), len(changed), target)
		if execErr := reexecute(ctx); execErr != nil {
			fmt.Fprintf(app.stderr, "%s Execution failed: %v\n", WarningStyle.Render("!"), execErr)
		}
		fmt.Fprintf(app.stdout, "\n%s Watching for changes...\n\n", VerboseHighlightStyle.Render("→"))
		return nil
	}

	w, err := watch.New(wcfg)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return w.Run(ctx)
}
