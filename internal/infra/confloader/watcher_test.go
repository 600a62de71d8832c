package confloader

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, opts ...WatcherOption) *Watcher {
	t.Helper()
	opts = append([]WatcherOption{WithWatcherLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	w, err := NewWatcher(opts...)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if w.watcher == nil {
		t.Error("NewWatcher() watcher is nil")
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
	if w.logger == nil {
		t.Error("NewWatcher() logger is nil")
	}
}

func TestNewWatcher_WithOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := newTestWatcher(t, WithWatcherLogger(logger), WithDebounce(0))

	if w.logger != logger {
		t.Error("WithWatcherLogger() option not applied")
	}
	if w.debounce != 0 {
		t.Errorf("debounce = %v, want 0", w.debounce)
	}
}

func TestWatcher_Watch(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configFile, "key: value")

	w := newTestWatcher(t)
	if err := w.Watch(configFile); err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	if !w.watching(configFile) {
		t.Error("watching() = false after Watch()")
	}
}

func TestWatcher_Watch_NonexistentDir(t *testing.T) {
	w := newTestWatcher(t)

	if err := w.Watch("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Watch() expected error for nonexistent directory")
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_OnChange_MultipleCalls(t *testing.T) {
	w := newTestWatcher(t)

	var count int
	var mu sync.Mutex

	for i := 0; i < 3; i++ {
		w.OnChange(func(path string) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	w.notifyCallbacks("/test/path")

	mu.Lock()
	if count != 3 {
		t.Errorf("OnChange() count = %d, want 3", count)
	}
	mu.Unlock()
}

func TestWatcher_FileChange(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configFile, "key: value1")

	w := newTestWatcher(t, WithDebounce(0))
	if err := w.Watch(configFile); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	changed := make(chan string, 10)
	w.OnChange(func(path string) {
		select {
		case changed <- path:
		default:
		}
	})

	w.StartAsync()

	// Wait for watcher to be ready
	time.Sleep(100 * time.Millisecond)

	writeFile(t, configFile, "key: value2")

	select {
	case path := <-changed:
		if path != filepath.Clean(configFile) {
			t.Errorf("OnChange() path = %q, want %q", path, configFile)
		}
	case <-time.After(2 * time.Second):
		t.Error("OnChange() callback was not triggered within timeout")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	writeFile(t, configFile, "key: value")

	w := newTestWatcher(t, WithDebounce(0))
	if err := w.Watch(configFile); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	var calls atomic.Int32
	w.OnChange(func(string) { calls.Add(1) })

	w.StartAsync()
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "other.yaml"), "unrelated: true")
	time.Sleep(300 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callbacks = %d, want 0 for an unwatched file", n)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configFile, "n: 0")

	w := newTestWatcher(t, WithDebounce(200*time.Millisecond))
	if err := w.Watch(configFile); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	var calls atomic.Int32
	w.OnChange(func(string) { calls.Add(1) })

	w.StartAsync()
	time.Sleep(100 * time.Millisecond)

	for i := 1; i <= 5; i++ {
		writeFile(t, configFile, "n: "+string(rune('0'+i)))
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(400 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("callbacks = %d, want 1 after a burst of writes", n)
	}
}

func TestWatcher_ConcurrentCallbacks(t *testing.T) {
	w := newTestWatcher(t)

	var count atomic.Int32
	w.OnChange(func(path string) {
		count.Add(1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.notifyCallbacks("/test/path")
		}()
	}
	wg.Wait()

	if n := count.Load(); n != 100 {
		t.Errorf("Concurrent notifications: count = %d, want 100", n)
	}
}

func TestWatcher_ReloadsLoader(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configFile, "log:\n  level: info\n")

	var cfg struct {
		Log struct {
			Level string `koanf:"level"`
		} `koanf:"log"`
	}

	l := NewLoader(WithConfigFile(configFile), WithEnvPrefix("JOBRUNNER_TEST_RELOAD_"))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	w := newTestWatcher(t, WithDebounce(50*time.Millisecond))
	if err := w.Watch(configFile); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	levels := make(chan string, 10)
	w.OnChange(func(string) {
		if err := l.Reload(&cfg); err != nil {
			t.Errorf("Reload() error = %v", err)
			return
		}
		levels <- cfg.Log.Level
	})

	w.StartAsync()
	time.Sleep(100 * time.Millisecond)

	writeFile(t, configFile, "log:\n  level: debug\n")

	select {
	case level := <-levels:
		if level != "debug" {
			t.Errorf("level after reload = %q, want debug", level)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reload was not triggered within timeout")
	}
}
