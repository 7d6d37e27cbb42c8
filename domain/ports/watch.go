package ports

import "context"

// WatchSink registers a file path whose changes should cause the host to
// re-run the program.
type WatchSink interface {
	Watch(ctx context.Context, path string) error
}
