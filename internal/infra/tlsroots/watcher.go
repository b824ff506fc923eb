package tlsroots

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last bundle event before
// OnChange fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a bundle file's directory and calls a callback after the
// bundle changes. It carries no certificate state of its own.
type Watcher struct {
	path     string
	onChange func(path string)
	logger   *slog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped sync.Once

	timerMu sync.Mutex
	timer   *time.Timer
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher for the bundle at path. onChange runs on
// its own goroutine once events for path have been quiet for the debounce
// period.
func NewWatcher(path string, onChange func(path string), opts ...WatcherOption) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("tlsroots: nil change callback")
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tlsroots: create watcher: %w", err)
	}

	// Watch the directory rather than the file so rename-based rotation
	// and delete-then-recreate keep producing events.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("tlsroots: watch dir %s: %w", dir, err)
	}
	w.watcher = fw

	return w, nil
}

// Start processes events until Stop is called.
func (w *Watcher) Start() error {
	w.logger.Info("bundle watcher started", "bundle_path", w.path)

	base := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			w.logger.Debug("bundle file event",
				"file", event.Name,
				"op", event.Op.String(),
			)
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("bundle watcher error",
				"error", err,
				"bundle_path", w.path,
			)

		case <-w.done:
			return nil
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *Watcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.logger.Error("bundle watcher stopped with error", "error", err)
		}
	}()
}

// Stop stops watching and cancels any pending callback. It is safe to call
// more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopped.Do(func() {
		close(w.done)

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timerMu.Unlock()

		err = w.watcher.Close()
	})
	return err
}

// schedule (re)arms the debounce timer.
func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.onChange(w.path)
	})
}
