package testutil

import (
	"context"
	"errors"
	"sync"
)

// Slab is a fake guest linear memory with a bump allocator. Its methods
// match the memory and allocation hooks of the wazero adapter.
type Slab struct {
	mu    sync.Mutex
	data  []byte
	next  uint32
	freed map[uint32]uint32
}

// NewSlab returns a Slab of size bytes. Address zero is never handed out.
func NewSlab(size int) *Slab {
	return &Slab{data: make([]byte, size), next: 8, freed: map[uint32]uint32{}}
}

// Read returns a view of n bytes at offset.
func (s *Slab) Read(offset, n uint32) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(offset)+uint64(n) > uint64(len(s.data)) {
		return nil, false
	}
	return s.data[offset : offset+n], true
}

// Write copies v to offset.
func (s *Slab) Write(offset uint32, v []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(offset)+uint64(len(v)) > uint64(len(s.data)) {
		return false
	}
	copy(s.data[offset:], v)
	return true
}

// Allocate reserves size bytes.
func (s *Slab) Allocate(_ context.Context, size uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uint64(s.next)+uint64(size) > uint64(len(s.data)) {
		return 0, errors.New("out of memory")
	}
	ptr := s.next
	s.next += size
	return ptr, nil
}

// Deallocate records that ptr was released.
func (s *Slab) Deallocate(_ context.Context, ptr, size uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.freed[ptr] = size
	return nil
}

// Freed reports whether ptr was released and with which size.
func (s *Slab) Freed(ptr uint32) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	size, ok := s.freed[ptr]
	return size, ok
}

// Exhaust makes every later allocation fail.
func (s *Slab) Exhaust() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = uint32(len(s.data)) //nolint:gosec // G115: test sizes are small
}
