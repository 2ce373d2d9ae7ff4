// SPDX-License-Identifier: MPL-2.0

package kernel

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"kernlet/pkg/vfs"
)

func TestKernel_WriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)
	ctx := context.Background()

	if err := k.WriteFile(ctx, "/tmp/data.txt", []byte("payload")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	buf, err := k.ReadFile(ctx, "/tmp/data.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	defer buf.Release() //nolint:errcheck // single release in test
	if got := buf.String(); got != "payload" {
		t.Errorf("content = %q, want %q", got, "payload")
	}
}

func TestKernel_ReadFile_Missing(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)

	buf, err := k.ReadFile(context.Background(), "/tmp/absent.txt")
	if err == nil {
		t.Fatal("ReadFile of missing file should fail")
	}
	if buf != nil {
		t.Error("failed read must not return a buffer")
	}
}

func TestKernel_ReadFile_EmptyFileYieldsBuffer(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)
	ctx := context.Background()

	if err := k.WriteFile(ctx, "/tmp/empty.txt", nil); err != nil {
		t.Fatal(err)
	}

	// Unlike RunCapturing, reading an existing empty file yields a
	// zero-length buffer rather than nil.
	buf, err := k.ReadFile(ctx, "/tmp/empty.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if buf == nil {
		t.Fatal("empty file should yield a non-nil buffer")
	}
	defer buf.Release() //nolint:errcheck // single release in test
	if got := buf.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestKernel_Exists(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)
	ctx := context.Background()

	if k.Exists(ctx, "/tmp/ghost.txt") {
		t.Error("Exists reported a missing file")
	}
	if err := k.WriteFile(ctx, "/tmp/ghost.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if !k.Exists(ctx, "/tmp/ghost.txt") {
		t.Error("Exists missed a written file")
	}
	if !k.Exists(ctx, "/tmp") {
		t.Error("Exists should report directories too")
	}
}

func TestKernel_DeleteFile(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)
	ctx := context.Background()

	if err := k.WriteFile(ctx, "/tmp/doomed.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := k.DeleteFile(ctx, "/tmp/doomed.txt"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if k.Exists(ctx, "/tmp/doomed.txt") {
		t.Error("file still exists after delete")
	}

	if err := k.DeleteFile(ctx, "/tmp/doomed.txt"); err == nil {
		t.Error("deleting a missing file should fail")
	}
}

func TestKernel_ListDirectory_BareNames(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)
	ctx := context.Background()

	if err := k.WriteFile(ctx, "/tmp/box/b.txt", []byte("b")); err != nil {
		t.Fatal(err)
	}
	if err := k.WriteFile(ctx, "/tmp/box/a.txt", []byte("a")); err != nil {
		t.Fatal(err)
	}

	buf, err := k.ListDirectory(ctx, "/tmp/box")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	defer buf.Release() //nolint:errcheck // single release in test

	// No type markers here; that formatting belongs to the ls builtin.
	if got := buf.String(); got != "a.txt\nb.txt\n" {
		t.Errorf("listing = %q, want %q", got, "a.txt\nb.txt\n")
	}
}

func TestKernel_ListDirectory_EmptyYieldsBuffer(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)

	buf, err := k.ListDirectory(context.Background(), "/home")
	if err != nil {
		t.Fatalf("ListDirectory: %v", err)
	}
	if buf == nil {
		t.Fatal("empty directory should yield a non-nil buffer")
	}
	defer buf.Release() //nolint:errcheck // single release in test
	if got := buf.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestKernel_ListDirectory_Missing(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)

	if _, err := k.ListDirectory(context.Background(), "/nope"); err == nil {
		t.Error("listing a missing directory should fail")
	}
}

func TestKernel_PassthroughDoesNotTouchLastStatus(t *testing.T) {
	t.Parallel()

	k := newTestKernel(t)
	ctx := context.Background()

	k.Run(ctx, "zap")
	if got := k.LastStatus(); got != -1 {
		t.Fatalf("LastStatus = %d, want -1", got)
	}

	if err := k.WriteFile(ctx, "/tmp/side.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	k.Exists(ctx, "/tmp/side.txt")
	if _, err := k.ReadFile(ctx, "/tmp/missing-on-purpose"); err == nil {
		t.Fatal("expected read failure")
	}

	if got := k.LastStatus(); got != -1 {
		t.Errorf("LastStatus changed to %d after passthrough ops, want -1", got)
	}
}

func TestKernel_PassthroughRequiresRunning(t *testing.T) {
	t.Parallel()

	k := New(vfs.Memory(), WithLogger(log.New(io.Discard)))
	ctx := context.Background()

	if err := k.WriteFile(ctx, "/tmp/x", []byte("x")); !errors.Is(err, ErrNotRunning) {
		t.Errorf("WriteFile before boot = %v, want ErrNotRunning", err)
	}
	if _, err := k.ReadFile(ctx, "/tmp/x"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("ReadFile before boot = %v, want ErrNotRunning", err)
	}
	if err := k.DeleteFile(ctx, "/tmp/x"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("DeleteFile before boot = %v, want ErrNotRunning", err)
	}
	if _, err := k.ListDirectory(ctx, "/tmp"); !errors.Is(err, ErrNotRunning) {
		t.Errorf("ListDirectory before boot = %v, want ErrNotRunning", err)
	}
	if k.Exists(ctx, "/tmp") {
		t.Error("Exists before boot should report false")
	}
}
