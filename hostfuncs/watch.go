package hostfuncs

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/turbo-genesis/turbo-go/domain/ports"
)

// WatchList records the paths a program depends on. The host re-runs the
// program when one of them changes.
type WatchList struct {
	paths map[string]struct{}
	onAdd func(path string)
	mu    sync.Mutex
}

var _ ports.WatchSink = (*WatchList)(nil)

// NewWatchList creates a WatchList. onAdd, if non-nil, is called once for
// each newly watched path.
func NewWatchList(onAdd func(path string)) *WatchList {
	return &WatchList{paths: make(map[string]struct{}), onAdd: onAdd}
}

// Watch records path. Repeated paths are accepted without calling onAdd
// again.
func (w *WatchList) Watch(_ context.Context, path string) error {
	if path == "" {
		return errors.New("watch path cannot be empty")
	}
	w.mu.Lock()
	_, seen := w.paths[path]
	w.paths[path] = struct{}{}
	w.mu.Unlock()

	if !seen && w.onAdd != nil {
		w.onAdd(path)
	}
	return nil
}

// Paths returns the watched paths, sorted.
func (w *WatchList) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
