// SPDX-License-Identifier: MPL-2.0

package kernel

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"kernlet/internal/telemetry"
	"kernlet/pkg/builtin"
	"kernlet/pkg/vfs"
)

// KernelVersion is the version the sandbox kernel reports through
// Version(). It is independent of the host binary's build version.
const KernelVersion = "0.1.0"

// Kernel is the boundary adapter between a host and the sandboxed
// console runtime. It owns the sandbox filesystem, the command
// dispatcher, the console sink, and the session status; hosts interact
// with the sandbox exclusively through its methods.
//
// A Kernel is single-use: boot it, dispatch against it, close it.
type Kernel struct {
	logger     *log.Logger
	fsys       afero.Fs
	dispatcher *builtin.Dispatcher
	lock       *vfs.Lock
	backend    string

	state      atomic.Int32
	lastStatus atomic.Int64
}

// Option configures a Kernel instance.
type Option func(*Kernel)

// WithLogger sets the console sink. The default logs to stderr with the
// "kernel" prefix.
func WithLogger(logger *log.Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithLock attaches a held sandbox lock; Close releases it.
func WithLock(lock *vfs.Lock) Option {
	return func(k *Kernel) {
		k.lock = lock
	}
}

// WithBackend names the filesystem backend for the boot banner and
// telemetry ("memory", "host"). Default is "memory".
func WithBackend(name string) Option {
	return func(k *Kernel) {
		k.backend = name
	}
}

// New creates a kernel over the given sandbox filesystem with the
// standard console command set. The kernel starts in StateBooting;
// call Boot before dispatching.
func New(fsys afero.Fs, opts ...Option) *Kernel {
	k := &Kernel{
		fsys:       fsys,
		dispatcher: builtin.NewDispatcher(builtin.Defaults(fsys)),
		backend:    "memory",
	}
	k.state.Store(int32(StateBooting))

	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "kernel"})
	}

	return k
}

// State returns the current kernel state (atomic, lock-free read).
func (k *Kernel) State() State {
	return State(k.state.Load())
}

// Version returns the sandbox kernel version string.
func (k *Kernel) Version() string {
	k.logger.Debug("version requested")
	return KernelVersion
}

// Verbs returns the console verbs the kernel dispatches, sorted.
func (k *Kernel) Verbs() []string {
	return k.dispatcher.Names()
}

// Boot transitions the kernel from Booting to Running and announces
// itself on the console sink. Booting twice, or booting a closed
// kernel, is an error.
func (k *Kernel) Boot(ctx context.Context) (State, error) {
	if !k.state.CompareAndSwap(int32(StateBooting), int32(StateRunning)) {
		return k.State(), fmt.Errorf("cannot boot kernel in state %s", k.State())
	}

	k.logger.Info("kernel initializing", "version", KernelVersion, "backend", k.backend)
	k.logger.Warn("this is an experimental sandbox kernel")
	telemetry.RecordBoot(ctx, k.backend, StateRunning.String())

	return StateRunning, nil
}

// Run dispatches one command line and returns its status code without
// capturing output. Failure diagnostics go to the console sink. The
// returned code also becomes LastStatus.
func (k *Kernel) Run(ctx context.Context, line string) int {
	return k.dispatch(ctx, line).Code
}

// RunCapturing dispatches one command line and returns its status code
// together with the captured output. The buffer is nil when the command
// produced no output; a rejected (empty or whitespace-only) line yields
// -1 and a nil buffer. A non-nil buffer is owned by the caller, who
// must release it exactly once; the kernel keeps no reference to it.
func (k *Kernel) RunCapturing(ctx context.Context, line string) (int, *OwnedBuffer) {
	res := k.dispatch(ctx, line)
	if res.Output == "" {
		return res.Code, nil
	}
	return res.Code, newOwnedBuffer(res.Output)
}

// LastStatus returns the status code of the most recent Run or
// RunCapturing call, including rejected lines. It is 0 before the
// first dispatch. Passthrough filesystem operations never change it.
func (k *Kernel) LastStatus() int {
	return int(k.lastStatus.Load())
}

// dispatch runs the shared dispatch path: state gate, input rejection,
// registry dispatch, status tracking, console logging, telemetry. Every
// path through it stores a status for LastStatus. A panic escaping a
// builtin moves the kernel to StatePanic and fails the dispatch.
func (k *Kernel) dispatch(ctx context.Context, line string) (res builtin.Result) {
	defer func() {
		if r := recover(); r != nil {
			k.state.Store(int32(StatePanic))
			k.lastStatus.Store(int64(builtin.StatusError))
			k.logger.Error("kernel panic", "recovered", r)
			res = builtin.Result{Code: builtin.StatusError}
		}
	}()

	if k.State() != StateRunning {
		k.logger.Error("command rejected", "state", k.State())
		k.lastStatus.Store(int64(builtin.StatusError))
		telemetry.RecordDispatch(ctx, "", builtin.StatusError, 0, "")
		return builtin.Result{Code: builtin.StatusError}
	}

	if strings.TrimSpace(line) == "" {
		k.logger.Error("empty or invalid command")
		k.lastStatus.Store(int64(builtin.StatusError))
		telemetry.RecordDispatch(ctx, "", builtin.StatusError, 0, "")
		return builtin.Result{Code: builtin.StatusError}
	}

	verb, _, _ := strings.Cut(line, " ")
	start := time.Now()
	res = k.dispatcher.Execute(ctx, line)
	durationMs := float64(time.Since(start).Nanoseconds()) / 1e6

	k.lastStatus.Store(int64(res.Code))
	telemetry.RecordDispatch(ctx, verb, res.Code, durationMs, res.Output)

	if res.Success() {
		k.logger.Debug("command ok", "verb", verb, "bytes", len(res.Output))
	} else {
		k.logger.Error(res.Output, "verb", verb)
	}
	return res
}

// Close moves the kernel to Shutdown and releases the sandbox lock if
// one is held. Closing an already closed kernel is a no-op.
func (k *Kernel) Close() error {
	for {
		current := State(k.state.Load())
		if current == StateShutdown {
			return nil
		}
		if k.state.CompareAndSwap(int32(current), int32(StateShutdown)) {
			break
		}
	}

	k.logger.Info("kernel shutting down")
	if k.lock != nil {
		if err := k.lock.Release(); err != nil {
			return fmt.Errorf("releasing sandbox lock: %w", err)
		}
	}
	return nil
}
