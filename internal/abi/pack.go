// Package abi holds the guest side of the host/guest memory contract.
//
// Every buffer that crosses the boundary travels as a single uint64 with
// the linear-memory offset in the high 32 bits and the length in the low
// 32 bits. Zero means "no data".
package abi

import (
	"errors"
	"fmt"
)

// PtrHighBits is the shift applied to the pointer half of a packed value.
const PtrHighBits = 32

// ErrNullPointer is returned when a packed value has a length but no pointer.
var ErrNullPointer = errors.New("abi: null pointer with non-zero length")

// PackPtrLen packs a pointer and length into a single uint64.
// Panics if ptr is 0 and length > 0, since that can only be a caller bug.
func PackPtrLen(ptr, length uint32) uint64 {
	if ptr == 0 && length > 0 {
		panic(fmt.Sprintf("abi: invalid pack - null pointer (0x0) with non-zero length (%d)", length))
	}
	return (uint64(ptr) << PtrHighBits) | uint64(length)
}

// UnpackPtrLen splits a packed value. Values produced by the other side of
// the boundary are untrusted, so a null pointer with a length is an error
// rather than a panic.
func UnpackPtrLen(packed uint64) (ptr, length uint32, err error) {
	ptr = uint32(packed >> PtrHighBits)
	length = uint32(packed)
	if ptr == 0 && length > 0 {
		return 0, 0, fmt.Errorf("%w (%d)", ErrNullPointer, length)
	}
	return ptr, length, nil
}
