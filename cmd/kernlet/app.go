// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"kernlet/internal/config"
	"kernlet/internal/issue"
	"kernlet/internal/telemetry"
	"kernlet/pkg/kernel"
	"kernlet/pkg/seedfile"
	"kernlet/pkg/vfs"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command constructor receives an App
	// reference and reaches configuration and the output streams through it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp. Tests supply
	// buffers and fake providers to capture output and isolate config I/O.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootFlagValues carries the persistent root flags into subcommand
	// handlers without package-level state.
	rootFlagValues struct {
		configPath string
		verbose    bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}

	return &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfigOrDefaults loads configuration via the App provider. An explicit
// --config path must work and any failure there is fatal; without one, load
// failures fall back to defaults with a warning so the CLI stays operational
// on fresh installs.
func (app *App) loadConfigOrDefaults(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err == nil {
		return cfg, nil
	}

	if flags.configPath != "" {
		return nil, fmt.Errorf("loading config from %s: %w", flags.configPath, err)
	}

	fmt.Fprintf(app.stderr, "%s failed to load config, using defaults: %s\n",
		WarningStyle.Render("Warning:"), formatErrorForDisplay(err, flags.verbose))
	return config.DefaultConfig(), nil
}

// mountSandbox mounts the configured backend, applies the seed manifest,
// and wraps the result read-only when asked. The seed applies to the
// writable base so a read-only mount still starts from seeded content.
// Locking is separate; see acquireSandboxLock.
func mountSandbox(fc config.FilesystemConfig) (afero.Fs, error) {
	var fsys afero.Fs
	switch fc.Backend {
	case config.BackendHost:
		var err error
		fsys, err = vfs.Host(fc.Root)
		if err != nil {
			return nil, issue.New("mount sandbox root").
				At(fc.Root).
				Hint("Create the directory, or point filesystem.root at an existing one",
					"Run 'kernlet doctor' to check the sandbox environment").
				See(issue.SandboxRootNotFound).
				Because(err)
		}
	default:
		fsys = vfs.Memory()
	}

	if fc.Seed != "" {
		seed, err := seedfile.Parse(fc.Seed)
		if err != nil {
			return nil, issue.New("parse seed manifest").
				At(fc.Seed).
				Hint("Seed manifests are CUE files with 'dirs' and 'files' fields",
					"All seed paths must be absolute sandbox paths like /etc/motd").
				See(issue.SeedParseError).
				Because(err)
		}
		if err := seed.Apply(fsys); err != nil {
			return nil, fmt.Errorf("applying seed manifest %s: %w", fc.Seed, err)
		}
	}

	if fc.ReadOnly {
		fsys = vfs.ReadOnly(fsys)
	}

	return fsys, nil
}

// acquireSandboxLock takes the configured sandbox lock, or returns nil when
// locking does not apply (memory backend, or disabled in config).
func acquireSandboxLock(fc config.FilesystemConfig) (*vfs.Lock, error) {
	if fc.Backend != config.BackendHost || !fc.Lock {
		return nil, nil
	}
	lock, err := vfs.AcquireLock(fc.Root)
	if errors.Is(err, vfs.ErrLocked) {
		return nil, issue.New("lock sandbox root").
			At(fc.Root).
			Hint("Stop the other kernlet process using this root, or use a different root",
				"Set filesystem.lock = false to share the root without locking").
			See(issue.SandboxLocked).
			Because(err)
	}
	if err != nil {
		return nil, fmt.Errorf("locking sandbox root: %w", err)
	}
	return lock, nil
}

// buildKernel assembles an unbooted kernel for a one-shot invocation: its
// own mount, with the sandbox lock handed to the kernel so Close releases
// it. The SSH server does not use this; it holds the lock itself and
// shares one mount across session kernels.
func buildKernel(cfg *config.Config, logger *log.Logger) (*kernel.Kernel, error) {
	lock, err := acquireSandboxLock(cfg.Filesystem)
	if err != nil {
		return nil, err
	}

	fsys, err := mountSandbox(cfg.Filesystem)
	if err != nil {
		if lock != nil {
			_ = lock.Release()
		}
		return nil, err
	}

	opts := []kernel.Option{kernel.WithBackend(string(cfg.Filesystem.Backend))}
	if logger != nil {
		opts = append(opts, kernel.WithLogger(logger))
	}
	if lock != nil {
		opts = append(opts, kernel.WithLock(lock))
	}

	return kernel.New(fsys, opts...), nil
}

// bootKernel builds and boots a kernel for one CLI invocation. The caller
// must Close the returned kernel.
func bootKernel(ctx context.Context, cfg *config.Config, logger *log.Logger) (*kernel.Kernel, error) {
	k, err := buildKernel(cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, err := k.Boot(ctx); err != nil {
		_ = k.Close()
		return nil, fmt.Errorf("booting kernel: %w", err)
	}
	return k, nil
}

// setupTelemetry installs the OTLP exporters when an endpoint is
// configured and returns the flush hook for command teardown. The hook
// flushes on a fresh context so an interrupt still drains the exporters.
// Export failures never stop a command; the kernel keeps recording into
// the no-op providers.
func setupTelemetry(ctx context.Context, app *App, cfg *config.Config) func() {
	shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceVersion: Version,
	})
	if err != nil {
		fmt.Fprintf(app.stderr, "%s telemetry disabled: %v\n", WarningStyle.Render("Warning:"), err)
		return func() {}
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			fmt.Fprintf(app.stderr, "%s telemetry shutdown: %v\n", WarningStyle.Render("Warning:"), err)
		}
	}
}

// kernelLogger builds a kernel console sink on w at the configured level.
func kernelLogger(w io.Writer, level config.Level) *log.Logger {
	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: "kernel", Level: lvl})
}

// printBuffer writes a captured buffer to w, guaranteeing a trailing
// newline, and releases the buffer.
func printBuffer(w io.Writer, buf *kernel.OwnedBuffer) {
	out := buf.String()
	_, _ = io.WriteString(w, out) //nolint:errcheck // I/O copy; errors are non-recoverable
	if !strings.HasSuffix(out, "\n") {
		_, _ = io.WriteString(w, "\n") //nolint:errcheck // I/O copy; errors are non-recoverable
	}
	_ = buf.Release() //nolint:errcheck // Single release; cannot fail here
}
