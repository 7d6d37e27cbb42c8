package wazero

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/turbo-genesis/turbo-go/internal/abi"
)

// Guest export names the host relies on for memory management.
const (
	ExportAllocate   = "allocate"
	ExportDeallocate = "deallocate"
)

// ErrMissingExport is returned when a guest does not export allocate or
// deallocate.
var ErrMissingExport = errors.New("guest is missing a required export")

// Memory is the subset of api.Memory the adapter uses.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

// AllocFunc reserves size bytes in the guest and returns the pointer.
type AllocFunc func(ctx context.Context, size uint32) (uint32, error)

// FreeFunc releases a guest buffer.
type FreeFunc func(ctx context.Context, ptr, size uint32) error

// GuestMemory moves byte buffers in and out of a guest's linear memory
// through its allocate and deallocate exports.
type GuestMemory struct {
	mem   Memory
	alloc AllocFunc
	free  FreeFunc
}

// NewGuestMemory binds to mod's memory and allocation exports.
func NewGuestMemory(mod api.Module) (*GuestMemory, error) {
	allocFn := mod.ExportedFunction(ExportAllocate)
	freeFn := mod.ExportedFunction(ExportDeallocate)
	if allocFn == nil || freeFn == nil {
		return nil, fmt.Errorf("%w: %s and %s", ErrMissingExport, ExportAllocate, ExportDeallocate)
	}
	if mod.Memory() == nil {
		return nil, fmt.Errorf("%w: memory", ErrMissingExport)
	}

	return NewGuestMemoryWith(mod.Memory(),
		func(ctx context.Context, size uint32) (uint32, error) {
			results, err := allocFn.Call(ctx, uint64(size))
			if err != nil {
				return 0, err
			}
			return uint32(results[0]), nil //nolint:gosec // G115: WASM32 pointers are always 32-bit
		},
		func(ctx context.Context, ptr, size uint32) error {
			_, err := freeFn.Call(ctx, uint64(ptr), uint64(size))
			return err
		},
	), nil
}

// NewGuestMemoryWith builds a GuestMemory from explicit parts. Tests use it
// to stand in for a guest.
func NewGuestMemoryWith(mem Memory, alloc AllocFunc, free FreeFunc) *GuestMemory {
	return &GuestMemory{mem: mem, alloc: alloc, free: free}
}

// Write allocates a guest buffer, copies data into it and returns its
// pointer. Empty data is not written and yields a zero pointer.
func (g *GuestMemory) Write(ctx context.Context, data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	ptr, err := g.alloc(ctx, uint32(len(data))) //nolint:gosec // G115: bounded by request limits
	if err != nil {
		return 0, fmt.Errorf("guest allocate: %w", err)
	}
	if ptr == 0 {
		return 0, errors.New("guest allocate returned a null pointer")
	}
	if !g.mem.Write(ptr, data) {
		return 0, fmt.Errorf("write %d bytes at 0x%x: out of range", len(data), ptr)
	}
	return ptr, nil
}

// WritePacked is Write returning the packed ptr<<32|len form.
func (g *GuestMemory) WritePacked(ctx context.Context, data []byte) (uint64, error) {
	ptr, err := g.Write(ctx, data)
	if err != nil || ptr == 0 {
		return 0, err
	}
	return abi.PackPtrLen(ptr, uint32(len(data))), nil //nolint:gosec // G115: bounded by request limits
}

// Read copies length bytes at ptr out of guest memory.
func (g *GuestMemory) Read(ptr, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	view, ok := g.mem.Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("read %d bytes at 0x%x: out of range", length, ptr)
	}
	return append([]byte(nil), view...), nil
}

// ReadPacked is Read for a packed ptr<<32|len value.
func (g *GuestMemory) ReadPacked(packed uint64) ([]byte, error) {
	ptr, length, err := abi.UnpackPtrLen(packed)
	if err != nil {
		return nil, err
	}
	return g.Read(ptr, length)
}

// Free releases a buffer the guest pinned for the host.
func (g *GuestMemory) Free(ctx context.Context, packed uint64) error {
	ptr, length, err := abi.UnpackPtrLen(packed)
	if err != nil || ptr == 0 {
		return err
	}
	return g.free(ctx, ptr, length)
}

// Take reads a packed guest buffer and frees it.
func (g *GuestMemory) Take(ctx context.Context, packed uint64) ([]byte, error) {
	data, err := g.ReadPacked(packed)
	if err != nil {
		return nil, err
	}
	if err := g.Free(ctx, packed); err != nil {
		return nil, fmt.Errorf("guest deallocate: %w", err)
	}
	return data, nil
}
