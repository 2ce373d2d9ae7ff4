// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gossh "golang.org/x/crypto/ssh"
)

// startConsole starts a console server on a loopback auto-select port over
// a seeded sandbox and returns its dial address.
func startConsole(t *testing.T, seed map[string]string) string {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv, err := New(cfg, memConsole(seed))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { stopServer(t, srv) })

	return srv.Address()
}

// dialConsole connects to the console server. The console is anonymous,
// so no auth methods are offered.
func dialConsole(t *testing.T, addr string) *gossh.Client {
	t.Helper()

	client, err := gossh.Dial("tcp", addr, &gossh.ClientConfig{
		User:            "sandbox",
		HostKeyCallback: gossh.InsecureIgnoreHostKey(), //nolint:gosec // Loopback test server with an ephemeral key
		Timeout:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("ssh dial failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// execLine runs one command line in a fresh exec session and returns its
// combined stdout and the session error.
func execLine(t *testing.T, client *gossh.Client, line string) (string, error) {
	t.Helper()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("new session failed: %v", err)
	}
	defer func() { _ = sess.Close() }()

	out, err := sess.Output(line)
	return string(out), err
}

func TestExecSession(t *testing.T) {
	t.Parallel()

	addr := startConsole(t, map[string]string{
		"/motd": "welcome to the sandbox",
	})
	client := dialConsole(t, addr)

	out, err := execLine(t, client, "cat /motd")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if out != "welcome to the sandbox\n" {
		t.Errorf("output = %q, want %q", out, "welcome to the sandbox\n")
	}
}

func TestExecSessionEcho(t *testing.T) {
	t.Parallel()

	addr := startConsole(t, nil)
	client := dialConsole(t, addr)

	out, err := execLine(t, client, "echo hello sandbox")
	if err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	if out != "hello sandbox\n" {
		t.Errorf("output = %q, want %q", out, "hello sandbox\n")
	}
}

func TestExecSessionsShareFilesystem(t *testing.T) {
	t.Parallel()

	addr := startConsole(t, nil)
	client := dialConsole(t, addr)

	// Write through one session, read back through another.
	out, err := execLine(t, client, "echo persisted > /note")
	if err != nil {
		t.Fatalf("write exec failed: %v", err)
	}
	if out != "" {
		t.Errorf("redirect output = %q, want empty", out)
	}

	out, err = execLine(t, client, "cat /note")
	if err != nil {
		t.Fatalf("read exec failed: %v", err)
	}
	if out != "persisted\n" {
		t.Errorf("output = %q, want %q", out, "persisted\n")
	}

	// Remove it and confirm a third session sees the removal.
	if _, err := execLine(t, client, "rm /note"); err != nil {
		t.Fatalf("rm exec failed: %v", err)
	}
	if _, err := execLine(t, client, "cat /note"); err == nil {
		t.Error("cat after rm should fail")
	}
}

func TestExecSessionUnknownCommand(t *testing.T) {
	t.Parallel()

	addr := startConsole(t, nil)
	client := dialConsole(t, addr)

	out, err := execLine(t, client, "definitely-not-a-verb")

	var exitErr *gossh.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *gossh.ExitError", err)
	}
	if exitErr.ExitStatus() != 1 {
		t.Errorf("exit status = %d, want 1", exitErr.ExitStatus())
	}
	if !strings.Contains(out, "Unknown command") {
		t.Errorf("output = %q, should contain %q", out, "Unknown command")
	}
}

func TestExecSessionMissingFile(t *testing.T) {
	t.Parallel()

	addr := startConsole(t, nil)
	client := dialConsole(t, addr)

	out, err := execLine(t, client, "cat /missing")

	var exitErr *gossh.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *gossh.ExitError", err)
	}
	if exitErr.ExitStatus() != 1 {
		t.Errorf("exit status = %d, want 1", exitErr.ExitStatus())
	}
	if !strings.Contains(out, "Failed to open file") {
		t.Errorf("output = %q, should contain %q", out, "Failed to open file")
	}
}

func TestInteractiveSession(t *testing.T) {
	t.Parallel()

	addr := startConsole(t, nil)
	client := dialConsole(t, addr)

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("new session failed: %v", err)
	}
	defer func() { _ = sess.Close() }()

	modes := gossh.TerminalModes{
		gossh.ECHO:          1,
		gossh.TTY_OP_ISPEED: 14400,
		gossh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("xterm", 24, 80, modes); err != nil {
		t.Fatalf("request pty failed: %v", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		t.Fatalf("stdin pipe failed: %v", err)
	}
	var out bytes.Buffer
	sess.Stdout = &out

	if err := sess.Shell(); err != nil {
		t.Fatalf("shell failed: %v", err)
	}

	// A PTY sends '\r' for enter.
	fmt.Fprint(stdin, "echo interactive works\r")
	fmt.Fprint(stdin, "exit\r")

	if err := sess.Wait(); err != nil {
		t.Fatalf("session wait failed: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "kernlet console (kernel") {
		t.Errorf("output should contain the console banner, got %q", output)
	}
	if !strings.Contains(output, "interactive works") {
		t.Errorf("output should contain the echoed text, got %q", output)
	}
}

func TestInteractiveSessionRequiresPty(t *testing.T) {
	t.Parallel()

	addr := startConsole(t, nil)
	client := dialConsole(t, addr)

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("new session failed: %v", err)
	}
	defer func() { _ = sess.Close() }()

	var out bytes.Buffer
	sess.Stdout = &out

	// No PTY requested: the console loop must refuse the session.
	if err := sess.Shell(); err != nil {
		t.Fatalf("shell failed: %v", err)
	}

	err = sess.Wait()
	var exitErr *gossh.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *gossh.ExitError", err)
	}
	if exitErr.ExitStatus() != 1 {
		t.Errorf("exit status = %d, want 1", exitErr.ExitStatus())
	}
	if strings.Contains(out.String(), "kernlet console") {
		t.Errorf("console banner should not appear without a PTY, got %q", out.String())
	}
}
