package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/turbo-genesis/turbo-go/domain/ports"
)

// ErrEmptyPath is returned when Watch is called without a path.
var ErrEmptyPath = errors.New("watch path cannot be empty")

// Watcher registers file paths with the host so the program re-runs when
// they change. Each path is forwarded to the sink once; repeated calls are
// acknowledged locally.
type Watcher struct {
	sink    ports.WatchSink
	watched map[string]struct{}
}

// NewWatcher creates a Watcher that forwards to sink.
func NewWatcher(sink ports.WatchSink) *Watcher {
	return &Watcher{
		sink:    sink,
		watched: make(map[string]struct{}),
	}
}

// Watch registers path. It does not poll.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if _, ok := w.watched[path]; ok {
		return nil
	}
	if err := w.sink.Watch(ctx, path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.watched[path] = struct{}{}
	return nil
}

// Watched reports whether path has been registered.
func (w *Watcher) Watched(path string) bool {
	_, ok := w.watched[path]
	return ok
}
