package hostfuncs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/domain/ports"
)

// DefaultStateCapacity is the largest state buffer a store accepts.
const DefaultStateCapacity = 4096 * 1000

// CapacityError is returned by Save when the buffer does not fit.
type CapacityError struct {
	Size     int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("state of %d bytes exceeds capacity of %d", e.Size, e.Capacity)
}

// Kind implements errors.KindedError.
func (e *CapacityError) Kind() entities.ErrorKind {
	return entities.ErrorKindState
}

// StoreOption configures a state store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	capacity int
}

// WithCapacity sets the largest buffer Save accepts. Non-positive values
// keep the default.
func WithCapacity(n int) StoreOption {
	return func(c *storeConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

func newStoreConfig(opts []StoreOption) storeConfig {
	cfg := storeConfig{capacity: DefaultStateCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// HotStore keeps the state buffer in host memory. It outlives module
// instances, which is what lets a reloaded module resume.
type HotStore struct {
	data     []byte
	capacity int
	mu       sync.Mutex
}

var _ ports.StateStore = (*HotStore)(nil)

// NewHotStore creates an empty HotStore.
func NewHotStore(opts ...StoreOption) *HotStore {
	return &HotStore{capacity: newStoreConfig(opts).capacity}
}

// Load returns a copy of the stored buffer.
func (s *HotStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...), nil
}

// Save replaces the stored buffer. Oversized buffers are rejected whole;
// a truncated state would not decode.
func (s *HotStore) Save(_ context.Context, data []byte) error {
	if len(data) > s.capacity {
		return &CapacityError{Size: len(data), Capacity: s.capacity}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data[:0], data...)
	return nil
}

// Reset clears the stored buffer.
func (s *HotStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
}

// FileStore keeps the state buffer in a file so it survives host restarts.
type FileStore struct {
	path     string
	capacity int
	mu       sync.Mutex
}

var _ ports.StateStore = (*FileStore)(nil)

// NewFileStore creates a FileStore backed by path. The file need not exist.
func NewFileStore(path string, opts ...StoreOption) *FileStore {
	return &FileStore{path: path, capacity: newStoreConfig(opts).capacity}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the backing file. A missing file is an empty state.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

// Save writes data to a temporary file and renames it over the backing
// file, so a crash never leaves a partial state behind.
func (s *FileStore) Save(_ context.Context, data []byte) error {
	if len(data) > s.capacity {
		return &CapacityError{Size: len(data), Capacity: s.capacity}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
