// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
)

// Start starts the console server and blocks until either:
//   - The server is ready to accept connections (returns nil)
//   - The server fails to start (returns error)
//   - The context is cancelled (returns context error)
//   - The startup timeout is exceeded (returns error)
//
// After Start() returns nil, use Err() to monitor for runtime errors.
func (s *Server) Start(ctx context.Context) error {
	// Refuse a dead caller context before any state moves. Otherwise the
	// serve goroutine could reach Running with nobody left to stop it.
	if err := ctx.Err(); err != nil {
		failErr := fmt.Errorf("context cancelled before start: %w", err)
		s.fail(failErr)
		return failErr
	}

	s.mu.Lock()
	if st := State(s.state.Load()); st != StateNew {
		s.mu.Unlock()
		return fmt.Errorf("cannot start console server in state %s", st)
	}
	s.state.Store(int32(StateStarting))
	s.loopCtx, s.loopStop = context.WithCancel(context.Background())
	s.mu.Unlock()

	startupCtx, startupCancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer startupCancel()

	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", s.cfg.Addr)
	if err != nil {
		s.fail(fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err))
		return s.LastError()
	}

	s.srvMu.Lock()
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	// Create SSH server. No auth handlers: the console is anonymous.
	// Middleware composes last-to-first, so exec sessions are classified
	// before the PTY gate, and only interactive sessions reach the loop.
	opts := []ssh.Option{
		wish.WithAddress(s.cfg.Addr),
		wish.WithMiddleware(
			s.consoleMiddleware(),
			activeterm.Middleware(),
			s.execMiddleware(),
		),
	}
	if s.cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(s.cfg.HostKeyPath))
	}

	srv, err := wish.NewServer(opts...)
	if err != nil {
		_ = listener.Close() // Best-effort cleanup on error
		s.fail(fmt.Errorf("failed to create SSH server: %w", err))
		return s.LastError()
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()

	s.serving.Add(1)
	go s.serve()

	select {
	case <-s.readyCh:
		s.logger.Info("console server started", "address", s.addr)
		return nil

	case err := <-s.errCh:
		// The accept loop died during startup.
		s.fail(err)
		return err

	case <-startupCtx.Done():
		s.fail(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.LastError()
	}
}

// Stop gracefully stops the console server.
// It blocks until all sessions are closed or the shutdown timeout is reached.
// Safe to call multiple times; subsequent calls are no-ops.
func (s *Server) Stop() error {
	s.mu.Lock()
	switch State(s.state.Load()) {
	case StateNew:
		// Never started; nothing to tear down.
		s.state.Store(int32(StateStopped))
		s.mu.Unlock()
		return nil
	case StateStopping, StateStopped, StateFailed:
		s.mu.Unlock()
		s.serving.Wait()
		return nil
	}
	s.state.Store(int32(StateStopping))
	stop := s.loopStop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	return s.shutdown()
}

// shutdown closes the SSH server and listener, waits for the accept loop
// to drain, and settles the terminal state.
func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	s.srvMu.Lock()
	if s.srv != nil {
		shutdownErr = s.srv.Shutdown(shutdownCtx)
		if shutdownErr != nil && !isClosedConnError(shutdownErr) {
			s.logger.Error("shutdown error", "error", shutdownErr)
		} else {
			shutdownErr = nil
		}
	}
	if s.listener != nil {
		_ = s.listener.Close() //nolint:errcheck // Best-effort cleanup during shutdown
	}
	s.srvMu.Unlock()

	s.serving.Wait()

	s.state.Store(int32(StateStopped))
	close(s.errCh)
	s.logger.Info("console server stopped")

	return shutdownErr
}

// serve marks the server ready and blocks in the SSH accept loop until
// shutdown.
func (s *Server) serve() {
	defer s.serving.Done()

	s.markReady()

	s.srvMu.Lock()
	srv, listener := s.srv, s.listener
	s.srvMu.Unlock()
	if srv == nil || listener == nil {
		return
	}

	err := srv.Serve(listener)
	if err == nil || errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	s.pushErr(fmt.Errorf("serve error: %w", err))
}

// Address returns the server's bound address (host:port) once the server
// is ready. It blocks until readiness, returning "" if the server never
// started, stopped, or failed first.
func (s *Server) Address() string {
	// Settled servers answer without blocking.
	select {
	case <-s.readyCh:
		s.srvMu.Lock()
		defer s.srvMu.Unlock()
		return s.addr
	default:
	}

	s.mu.Lock()
	ctx := s.loopCtx
	s.mu.Unlock()
	if ctx == nil {
		return ""
	}

	select {
	case <-s.readyCh:
		s.srvMu.Lock()
		defer s.srvMu.Unlock()
		return s.addr
	case <-ctx.Done():
		return ""
	}
}

// Port returns the server's listening port, or 0 if the server never
// became ready.
func (s *Server) Port() int {
	_, portStr, err := net.SplitHostPort(s.Address())
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

// Wait blocks until the server has fully stopped and returns the failure
// that ended it, if any.
func (s *Server) Wait() error {
	s.serving.Wait()

	if s.State() == StateFailed {
		return s.LastError()
	}
	return nil
}
