package hotreload

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher forwards file system events for watched paths.
type Watcher struct {
	watcher    *fsnotify.Watcher
	logger     *zap.Logger
	paths      []string
	files      map[string]struct{}
	events     chan Event
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	isWatching bool
	closed     bool
}

// Event represents a file system event
type Event struct {
	Path string
	Op   fsnotify.Op
}

// NewWatcher creates a new file watcher
func NewWatcher(logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		watcher: fsWatcher,
		logger:  logger,
		paths:   make([]string, 0),
		files:   make(map[string]struct{}),
		events:  make(chan Event, 100),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Add adds a file or directory to watch
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to add path %s: %w", absPath, err)
	}

	w.paths = append(w.paths, absPath)
	w.logger.Debug("Added watch path", zap.String("path", absPath))
	return nil
}

// WatchFile watches the directory holding path and narrows events to that
// file. Editors that save by rename replace the inode, so watching the file
// itself would lose track of it after the first save.
func (w *Watcher) WatchFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		return err
	}

	w.mu.Lock()
	w.files[absPath] = struct{}{}
	w.mu.Unlock()
	return nil
}

// Events returns the channel for file system events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching for file system events
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.isWatching || w.closed {
		w.mu.Unlock()
		return
	}
	w.isWatching = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.watch()
	w.logger.Info("File watcher started")
}

// Stop stops watching and releases the underlying watcher. A stopped
// watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	wasWatching := w.isWatching
	w.isWatching = false
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	close(w.events)
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Failed to close file watcher", zap.Error(err))
	}
	if wasWatching {
		w.logger.Info("File watcher stopped")
	}
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.shouldSkipEvent(event.Name) {
				continue
			}

			select {
			case w.events <- Event{Path: event.Name, Op: event.Op}:
			case <-w.ctx.Done():
				return
			}
			w.logger.Debug("File system event", zap.String("path", event.Name), zap.String("operation", event.Op.String()))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// shouldSkipEvent drops editor temporaries and, once WatchFile was used,
// anything that is not a watched file.
func (w *Watcher) shouldSkipEvent(path string) bool {
	base := filepath.Base(path)
	if filepath.Ext(path) == ".tmp" ||
		filepath.Ext(path) == ".swp" ||
		base == "" ||
		base[0] == '.' ||
		base[0] == '~' {
		return true
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.files) == 0 {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	_, ok := w.files[absPath]
	return !ok
}

// IsWatching returns whether the watcher is currently active
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isWatching
}
