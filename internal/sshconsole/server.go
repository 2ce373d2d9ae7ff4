// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"

	"kernlet/pkg/kernel"
)

// KernelFactory creates a fresh, unbooted kernel for one console session.
// The console writer is the session's diagnostic stream; the factory binds
// the kernel's console sink to it so boot banners and dispatch diagnostics
// reach the connected client.
type KernelFactory func(console io.Writer) (*kernel.Kernel, error)

// Server serves the sandbox console over SSH.
// A Server instance is single-use: once stopped or failed, create a new one.
type Server struct {
	// Immutable configuration (set at creation, never modified)
	cfg       Config
	newKernel KernelFactory

	// state is read lock-free; transitions and the failure record are
	// serialized by mu. readyCh closes on Starting -> Running.
	state   atomic.Int32
	mu      sync.Mutex
	failure error
	readyCh chan struct{}
	errCh   chan error

	// loopCtx outlives the Start caller's context. It is cancelled when
	// the server stops or fails, so blocked Address callers wake up.
	loopCtx  context.Context
	loopStop context.CancelFunc

	// serving tracks the accept loop goroutine through shutdown.
	serving sync.WaitGroup

	// Initialized during Start() - protected by srvMu for writes
	srvMu    sync.Mutex
	srv      *ssh.Server
	listener net.Listener
	addr     string // Actual bound address (including resolved port)

	logger *log.Logger
}

// New creates a new console server instance over the given kernel factory.
// Zero-value timeouts and an empty Addr or Prompt take their defaults.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config, newKernel KernelFactory) (*Server, error) {
	if newKernel == nil {
		return nil, ErrNilKernelFactory
	}

	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.Prompt == "" {
		cfg.Prompt = def.Prompt
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = def.StartupTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		newKernel: newKernel,
		readyCh:   make(chan struct{}),
		errCh:     make(chan error, 1),
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "sshconsole"}),
	}
	s.state.Store(int32(StateNew))
	return s, nil
}

// State returns the current lifecycle state (lock-free read).
func (s *Server) State() State {
	return State(s.state.Load())
}

// IsRunning reports whether the server is accepting sessions.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Err returns the channel runtime serve errors are delivered on.
// The channel is closed when the server stops.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// LastError returns the error that moved the server to StateFailed, or nil.
func (s *Server) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// fail records err, moves the server to StateFailed, and wakes anything
// blocked on the lifecycle context or the error channel. The first
// failure wins; later ones only reach the error channel.
func (s *Server) fail(err error) {
	s.mu.Lock()
	if s.failure == nil {
		s.failure = err
	}
	s.state.Store(int32(StateFailed))
	stop := s.loopStop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	s.pushErr(err)
}

// pushErr delivers err to the error channel without blocking; with no
// consumer and a full buffer the error is dropped.
func (s *Server) pushErr(err error) {
	select {
	case s.errCh <- err:
	default:
	}
}

// markReady flips Starting to Running and signals readiness. A server
// that already failed or began stopping stays where it is.
func (s *Server) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if State(s.state.Load()) == StateStarting {
		s.state.Store(int32(StateRunning))
		close(s.readyCh)
	}
}

// isClosedConnError checks if the error is a "use of closed network connection" error.
func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}
