package tlsroots

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/siege-leviathan/internal/testutil"
)

func TestNewWatcher_NilCallback(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "bundle.pem"), nil); err == nil {
		t.Error("NewWatcher() expected error for nil callback")
	}
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher("/nonexistent/dir/bundle.pem", func(string) {})
	if err == nil {
		t.Error("NewWatcher() expected error for nonexistent directory")
	}
}

func TestWatcher_Options(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	w, err := NewWatcher(filepath.Join(t.TempDir(), "bundle.pem"), func(string) {},
		WithLogger(logger),
		WithDebounce(200*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.logger != logger {
		t.Error("WithLogger() option not applied")
	}
	if w.debounce != 200*time.Millisecond {
		t.Errorf("WithDebounce() option not applied, got %v", w.debounce)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "bundle.pem"), func(string) {})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	w.StartAsync()
	time.Sleep(20 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_NotifiesOnRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.pem")
	testutil.WriteBundle(t, path, "v1.local")

	var calls atomic.Int32
	got := make(chan string, 4)
	w, err := NewWatcher(path, func(p string) {
		calls.Add(1)
		got <- p
	}, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)

	// Several quick writes collapse into one callback.
	for i := 0; i < 3; i++ {
		testutil.WriteBundle(t, path, "v2.local")
	}

	select {
	case p := <-got:
		if p != path {
			t.Errorf("callback path = %q, want %q", p, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnChange was not called after rotation")
	}

	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("callback calls = %d, want 1", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.pem")

	var calls atomic.Int32
	w, err := NewWatcher(path, func(string) { calls.Add(1) }, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("callback calls = %d, want 0", n)
	}
}
