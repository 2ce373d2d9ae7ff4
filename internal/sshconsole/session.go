// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"golang.org/x/term"

	"kernlet/pkg/builtin"
	"kernlet/pkg/kernel"
)

// execMiddleware handles sessions that carry a command line
// ("ssh host 'cat /motd'"): one dispatch, then exit. Sessions without a
// command fall through to the interactive console.
func (s *Server) execMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			if len(sess.Command()) == 0 {
				next(sess)
				return
			}
			s.runOnce(sess)
		}
	}
}

// consoleMiddleware runs the interactive console loop. It is the innermost
// middleware; activeterm has already rejected sessions without a PTY.
func (s *Server) consoleMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			s.runConsole(sess)
		}
	}
}

// runOnce boots a session kernel, dispatches the session's command line,
// and exits with 0 on success or 1 on any failure.
func (s *Server) runOnce(sess ssh.Session) {
	k, err := s.bootKernel(sess, sess.Stderr())
	if err != nil {
		return
	}
	defer func() { _ = k.Close() }() // Session teardown; error non-critical

	line := strings.Join(sess.Command(), " ")
	code, buf := k.RunCapturing(sess.Context(), line)
	if buf != nil {
		writeOutput(sess, buf)
	}

	if code != builtin.StatusOK {
		_ = sess.Exit(1) //nolint:errcheck // Terminal operation; error non-critical
		return
	}
	_ = sess.Exit(0) //nolint:errcheck // Terminal operation; error non-critical
}

// runConsole runs the interactive line loop: read a line, dispatch it,
// print the captured output. "exit", "quit", and EOF end the session.
func (s *Server) runConsole(sess ssh.Session) {
	ptyReq, winCh, _ := sess.Pty()

	console := term.NewTerminal(sess, s.cfg.Prompt)
	_ = console.SetSize(ptyReq.Window.Width, ptyReq.Window.Height) //nolint:errcheck // Size hint; error non-critical
	go func() {
		for win := range winCh {
			_ = console.SetSize(win.Width, win.Height) //nolint:errcheck // Size hint; error non-critical
		}
	}()

	// The terminal is also the kernel's console sink, so boot banners and
	// dispatch diagnostics render with proper line endings under the PTY.
	k, err := s.bootKernel(sess, console)
	if err != nil {
		return
	}
	defer func() { _ = k.Close() }() // Session teardown; error non-critical

	fmt.Fprintf(console, "kernlet console (kernel %s)\r\n", k.Version())
	fmt.Fprintf(console, "Type 'exit' or Ctrl-D to close the session.\r\n")

	for {
		line, err := console.ReadLine()
		if err != nil {
			// io.EOF on Ctrl-D or client disconnect
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("console read failed", "user", sess.User(), "error", err)
			}
			break
		}

		trimmed := strings.TrimSpace(line)
		switch trimmed {
		case "":
			continue
		case "exit", "quit":
			_ = sess.Exit(0) //nolint:errcheck // Terminal operation; error non-critical
			return
		}

		_, buf := k.RunCapturing(sess.Context(), line)
		if buf != nil {
			writeOutput(console, buf)
		}
	}

	_ = sess.Exit(0) //nolint:errcheck // Terminal operation; error non-critical
}

// bootKernel creates and boots a session kernel whose console sink writes
// to the given diagnostic stream. On failure it reports to the session's
// stderr and exits the session with status 1.
func (s *Server) bootKernel(sess ssh.Session, console io.Writer) (*kernel.Kernel, error) {
	k, err := s.newKernel(console)
	if err == nil {
		_, err = k.Boot(sess.Context())
	}
	if err != nil {
		s.logger.Error("session kernel boot failed", "user", sess.User(), "error", err)
		fmt.Fprintf(sess.Stderr(), "Error: %v\n", err)
		_ = sess.Exit(1) //nolint:errcheck // Terminal operation; error non-critical
		return nil, err
	}

	s.logger.Debug("session kernel booted", "user", sess.User(), "remote", sess.RemoteAddr())
	return k, nil
}

// writeOutput writes a captured buffer to the session, guaranteeing a
// trailing newline, and releases the buffer.
func writeOutput(w io.Writer, buf *kernel.OwnedBuffer) {
	out := buf.String()
	_, _ = io.WriteString(w, out) //nolint:errcheck // I/O copy; errors are non-recoverable
	if !strings.HasSuffix(out, "\n") {
		_, _ = io.WriteString(w, "\n") //nolint:errcheck // I/O copy; errors are non-recoverable
	}
	_ = buf.Release() //nolint:errcheck // Single release; cannot fail here
}
