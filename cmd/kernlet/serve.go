// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kernlet/internal/config"
	"kernlet/internal/issue"
	"kernlet/internal/sshconsole"
	"kernlet/pkg/kernel"
)

// newServeCommand creates the `kernlet serve` command: the SSH console
// server.
func newServeCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sandbox console over SSH",
		Long: `Start an SSH server that gives each session its own kernel over a
shared sandbox filesystem. Sessions carrying a command line dispatch
it once and exit; interactive sessions get the console loop. The
server runs until interrupted, then shuts down gracefully.`,
		Example: `  kernlet serve
  kernlet serve --addr :2200
  ssh -p 2222 localhost 'cat /motd'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfigOrDefaults(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.SSH.Addr = addr
			}
			return runServe(cmd.Context(), app, cfg)
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ssh.addr)")

	return serveCmd
}

// runServe mounts the shared sandbox, holds the sandbox lock for the
// server's lifetime, and serves console sessions until the context is
// cancelled. Session kernels share the mount but never the lock; handing
// the lock to a session kernel would release it on the first disconnect.
func runServe(ctx context.Context, app *App, cfg *config.Config) error {
	defer setupTelemetry(ctx, app, cfg)()

	lock, err := acquireSandboxLock(cfg.Filesystem)
	if err != nil {
		return err
	}
	if lock != nil {
		defer func() { _ = lock.Release() }() // Server teardown; error non-critical
	}

	fsys, err := mountSandbox(cfg.Filesystem)
	if err != nil {
		return err
	}

	// The factory binds each session kernel's console sink to the session
	// stream, mirrored to the host's stderr.
	factory := func(console io.Writer) (*kernel.Kernel, error) {
		sink := io.MultiWriter(app.stderr, console)
		return kernel.New(fsys,
			kernel.WithBackend(string(cfg.Filesystem.Backend)),
			kernel.WithLogger(kernelLogger(sink, cfg.Console.Level)),
		), nil
	}

	srv, err := sshconsole.New(sshconsole.Config{
		Addr:        cfg.SSH.Addr,
		HostKeyPath: cfg.SSH.HostKey,
		Prompt:      cfg.REPL.Prompt,
	}, factory)
	if err != nil {
		return err
	}

	if err := srv.Start(ctx); err != nil {
		return issue.New("start console server").
			At(cfg.SSH.Addr).
			Hint("Check that the address is free, or pick another with --addr",
				"Run 'kernlet doctor' to check the console environment").
			See(issue.ConsoleServerStartFailed).
			Because(err)
	}

	fmt.Fprintf(app.stdout, "%s Console listening on %s (Ctrl+C to stop)\n",
		VerboseHighlightStyle.Render("→"), srv.Address())

	select {
	case <-ctx.Done():
		fmt.Fprintf(app.stdout, "%s Shutting down...\n", VerboseHighlightStyle.Render("→"))
		return srv.Stop()
	case err := <-srv.Err():
		// The error channel closes on shutdown; a nil receive is a clean stop.
		_ = srv.Stop()
		if err != nil {
			return fmt.Errorf("console server failed: %w", err)
		}
		return nil
	}
}
