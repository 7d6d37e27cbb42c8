package ports

import "context"

// StateStore holds the encoded game state between entry-point calls.
// The buffer is opaque to the store.
type StateStore interface {
	// Load returns the last saved buffer. An empty buffer with a nil error
	// means nothing has been saved yet.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored buffer.
	Save(ctx context.Context, data []byte) error
}
