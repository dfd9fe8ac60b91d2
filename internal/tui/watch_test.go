package tui

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"proma/config/storage"
)

func newTestWatcher(t *testing.T, path string) *Watcher {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	w, err := NewWatcher(ctx, path, 100*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func expectChange(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func expectQuiet(t *testing.T, w *Watcher, wait time.Duration) {
	t.Helper()
	select {
	case <-w.Changes():
		t.Fatal("unexpected change reported")
	case <-time.After(wait):
	}
}

func TestWatcherReportsAtomicWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.json")
	w := newTestWatcher(t, path)

	if err := storage.AtomicWriteFile(path, []byte(`{"version":1,"channels":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	expectChange(t, w)

	if err := storage.AtomicWriteFile(path, []byte(`{"version":1,"channels":[{}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	expectChange(t, w)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, filepath.Join(dir, "channels.json"))

	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte("x = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w, 300*time.Millisecond)
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.json")
	w := newTestWatcher(t, path)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	expectChange(t, w)
	expectQuiet(t, w, 300*time.Millisecond)
}

func TestWaitForChange(t *testing.T) {
	if waitForChange(nil) != nil {
		t.Error("nil channel should produce no command")
	}

	changes := make(chan struct{}, 1)
	changes <- struct{}{}
	if _, ok := waitForChange(changes)().(FileChangedMsg); !ok {
		t.Error("expected FileChangedMsg")
	}

	close(changes)
	if msg := waitForChange(changes)(); msg != nil {
		t.Errorf("closed channel produced %T", msg)
	}
}
