// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newRootCommand builds the root command and attaches every subcommand.
func newRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "kernlet",
		Short: "A sandboxed text-command kernel",
		Long: TitleStyle.Render("kernlet") + SubtitleStyle.Render(" - a sandboxed text-command kernel") + `

kernlet boots a small command kernel over a sandboxed filesystem and
dispatches single-verb command lines (ls, cat, echo, rm) against it.
The sandbox is a fresh in-memory filesystem by default, or a host
directory jailed below a configured root.

` + SubtitleStyle.Render("Quick Start:") + `
  kernlet run ls /                 Dispatch one command line
  kernlet repl                     Open the interactive console
  kernlet serve                    Serve the console over SSH
  kernlet doctor                   Check the host environment

Run 'kernlet docs' for the console reference.`,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/kernlet/config.cue)")

	rootCmd.AddCommand(newRunCommand(app, flags))
	rootCmd.AddCommand(newReplCommand(app, flags))
	rootCmd.AddCommand(newServeCommand(app, flags))
	rootCmd.AddCommand(newFsCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newDoctorCommand(app, flags))
	rootCmd.AddCommand(newDocsCommand(app))

	return rootCmd
}

// Execute builds the CLI over production dependencies and runs it.
// This is called by main.main(). Interrupt cancels the command context,
// which the serve and watch loops use for graceful shutdown.
func Execute() {
	app := NewApp(Dependencies{})
	root := newRootCommand(app)

	// Use fang.Execute for enhanced Cobra styling.
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version.
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		// fang has printed the error line; add hints and the help page
		// for failures that carry them.
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		renderIssueHelp(os.Stderr, err, verbose)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
