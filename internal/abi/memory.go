//go:build wasip1

package abi

import (
	"fmt"
	"sync"
	"unsafe"
)

// DefaultMaxTotalAllocations caps the bytes the guest keeps pinned for the
// host at any one time.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024

// memoryManager pins buffers handed to the host so the Go GC cannot
// reclaim them until the host calls deallocate.
var memoryManager = struct {
	sync.Mutex
	ptrs           map[uint32][]byte
	totalAllocated int
	limit          int
}{
	ptrs:  make(map[uint32][]byte),
	limit: DefaultMaxTotalAllocations,
}

// Option adjusts the memory manager.
type Option func()

// WithMaxTotalAllocations sets the pinned-bytes limit. Non-positive values
// are ignored.
func WithMaxTotalAllocations(n int) Option {
	return func() {
		if n > 0 {
			memoryManager.limit = n
		}
	}
}

// Configure applies opts to the memory manager.
func Configure(opts ...Option) {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	for _, opt := range opts {
		opt()
	}
}

// allocate reserves size bytes and returns their offset. The host uses it
// to place request payloads in guest memory.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}

	memoryManager.Lock()
	defer memoryManager.Unlock()

	if memoryManager.totalAllocated+int(size) > memoryManager.limit {
		panic(fmt.Sprintf("abi: memory allocation limit exceeded (requested: %d bytes, current: %d bytes, limit: %d bytes)",
			size, memoryManager.totalAllocated, memoryManager.limit))
	}

	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))

	memoryManager.ptrs[ptr] = buf
	memoryManager.totalAllocated += int(size)

	return ptr
}

// deallocate releases a buffer from allocate. Accounting uses the stored
// length, not size, and unknown pointers are ignored.
//
//go:wasmexport deallocate
func deallocate(ptr uint32, size uint32) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	stored, exists := memoryManager.ptrs[ptr]
	if !exists {
		return
	}

	delete(memoryManager.ptrs, ptr)
	memoryManager.totalAllocated -= len(stored)
	if memoryManager.totalAllocated < 0 {
		memoryManager.totalAllocated = 0
	}
}

// FreeAllTracked drops every pinned buffer. Called after a trap or panic
// where the host will never come back for its results.
func FreeAllTracked() {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	clear(memoryManager.ptrs)
	memoryManager.totalAllocated = 0
}

// Stats reports the number of pinned buffers and their total size.
func Stats() (count, bytes int) {
	memoryManager.Lock()
	defer memoryManager.Unlock()
	return len(memoryManager.ptrs), memoryManager.totalAllocated
}

// PtrFromBytes copies data into a pinned buffer and returns it packed.
// Used for every result the guest hands back to the host.
func PtrFromBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	size := uint32(len(data))
	ptr := allocate(size)
	copyToMemory(ptr, data)
	return PackPtrLen(ptr, size)
}

// BytesFromPtr copies the buffer described by packed out of linear memory.
// Invalid or empty values read as nil.
func BytesFromPtr(packed uint64) []byte {
	ptr, length, err := UnpackPtrLen(packed)
	if err != nil || ptr == 0 || length == 0 {
		return nil
	}
	return readFromMemory(ptr, length)
}

// BytesFromPtrLen is BytesFromPtr for exports that take the two halves as
// separate parameters.
func BytesFromPtrLen(ptr, length uint32) []byte {
	if ptr == 0 || length == 0 {
		return nil
	}
	return readFromMemory(ptr, length)
}

// TakeBytes copies a host-written request out of a buffer from allocate
// and releases the buffer.
func TakeBytes(ptr, length uint32) []byte {
	data := BytesFromPtrLen(ptr, length)
	if ptr != 0 {
		deallocate(ptr, length)
	}
	return data
}

// DeallocatePacked releases the buffer described by packed.
func DeallocatePacked(packed uint64) {
	ptr, length, err := UnpackPtrLen(packed)
	if err == nil && ptr != 0 && length > 0 {
		deallocate(ptr, length)
	}
}

// Hold returns the packed address of data without copying it. The caller
// keeps data reachable (runtime.KeepAlive) until the host call returns.
func Hold(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	//nolint:gosec // G103: linear memory offset
	ptr := uint32(uintptr(unsafe.Pointer(&data[0])))
	return PackPtrLen(ptr, uint32(len(data)))
}

func copyToMemory(ptr uint32, data []byte) {
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	dest := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), len(data))
	copy(dest, data)
}

func readFromMemory(ptr uint32, length uint32) []byte {
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	data := make([]byte, length)
	copy(data, src)
	return data
}
