package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fileWatcher collects change notifications for a set of files until the
// run loop drains them. Parent directories are watched, so files that are
// replaced by rename or do not exist yet are still seen.
type fileWatcher struct {
	fs      *fsnotify.Watcher
	logger  *slog.Logger
	files   map[string]string // absolute path -> path as given
	dirs    map[string]struct{}
	pending map[string]struct{}
	done    chan struct{}
	mu      sync.Mutex
}

func newFileWatcher(logger *slog.Logger, paths ...string) (*fileWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &fileWatcher{
		fs:      fs,
		logger:  logger,
		files:   make(map[string]string),
		dirs:    make(map[string]struct{}),
		pending: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()

	for _, p := range paths {
		if err := w.add(p); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

// add starts watching path. Adding a path twice is a no-op.
func (w *fileWatcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[abs]; ok {
		return nil
	}
	dir := filepath.Dir(abs)
	if _, ok := w.dirs[dir]; !ok {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[abs] = path
	return nil
}

func (w *fileWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.mu.Lock()
			if path, ok := w.files[filepath.Clean(ev.Name)]; ok {
				w.pending[path] = struct{}{}
			}
			w.mu.Unlock()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", slog.Any("error", err))
		}
	}
}

// changed returns the paths that changed since the last call, sorted.
func (w *fileWatcher) changed() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	clear(w.pending)
	sort.Strings(out)
	return out
}

// Close stops watching and waits for the event loop to exit.
func (w *fileWatcher) Close() {
	if err := w.fs.Close(); err != nil {
		w.logger.Warn("failed to close file watcher", slog.Any("error", err))
	}
	<-w.done
}
