package tui

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports changes to a single file. It watches the parent directory
// because the file is replaced by rename on every write.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	changes  chan struct{}

	debounceMu sync.Mutex
	debouncer  *time.Timer
}

// NewWatcher starts watching path until ctx is done or Close is called
func NewWatcher(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		changes:  make(chan struct{}, 1),
	}

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return nil, err
	}

	go w.loop(ctx)

	logger.Debug("watching channels file", "path", w.path)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				w.debounced()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		case <-ctx.Done():
			w.Close()
			return
		}
	}
}

func (w *Watcher) debounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debouncer != nil {
		w.debouncer.Stop()
	}

	w.debouncer = time.AfterFunc(w.debounce, func() {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}

// Changes delivers one value per settled burst of changes
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching
func (w *Watcher) Close() error {
	w.debounceMu.Lock()
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	w.debounceMu.Unlock()
	return w.watcher.Close()
}

// waitForChange blocks until the next change and reports it as FileChangedMsg
func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return FileChangedMsg{}
	}
}
