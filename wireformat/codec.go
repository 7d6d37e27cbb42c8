package wireformat

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MaxFieldSize bounds a single length-prefixed field so a corrupt prefix
// cannot request an unbounded allocation.
const MaxFieldSize = 16 * 1024 * 1024

var (
	// ErrTruncated is returned when the input ends before a field is complete.
	ErrTruncated = errors.New("wireformat: unexpected end of input")
	// ErrTrailingBytes is returned when input remains after the last field.
	ErrTrailingBytes = errors.New("wireformat: trailing bytes after message")
	// ErrFieldTooLarge is returned when a length prefix exceeds MaxFieldSize.
	ErrFieldTooLarge = errors.New("wireformat: field exceeds maximum size")
)

// Encoder appends envelope fields to a byte buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with capacity for size bytes.
func NewEncoder(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

// U8 appends a single byte.
func (e *Encoder) U8(v uint8) {
	e.buf = append(e.buf, v)
}

// U32 appends a little-endian uint32.
func (e *Encoder) U32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// Bytes appends a length-prefixed byte slice.
func (e *Encoder) Bytes(v []byte) {
	e.U32(uint32(len(v))) //nolint:gosec // G115: bounded by MaxFieldSize on decode
	e.buf = append(e.buf, v...)
}

// String appends a length-prefixed UTF-8 string.
func (e *Encoder) String(v string) {
	e.U32(uint32(len(v))) //nolint:gosec // G115: bounded by MaxFieldSize on decode
	e.buf = append(e.buf, v...)
}

// Data returns the encoded bytes.
func (e *Encoder) Data() []byte {
	return e.buf
}

// Decoder reads envelope fields in order. The first failure is sticky:
// subsequent reads return zero values and Finish reports the error.
type Decoder struct {
	err  error
	data []byte
	off  int
}

// NewDecoder returns a Decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = ErrTruncated
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

// U8 reads a single byte.
func (d *Decoder) U8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U32 reads a little-endian uint32.
func (d *Decoder) U32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Bytes reads a length-prefixed byte slice. The result is a copy; an empty
// field decodes to nil.
func (d *Decoder) Bytes() []byte {
	n := d.U32()
	if d.err != nil || n == 0 {
		return nil
	}
	if n > MaxFieldSize {
		d.err = fmt.Errorf("%w: %d bytes", ErrFieldTooLarge, n)
		return nil
	}
	b := d.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// String reads a length-prefixed string.
func (d *Decoder) String() string {
	return string(d.Bytes())
}

// Err returns the first decoding error, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Finish reports the first decoding error, or ErrTrailingBytes if input remains.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.data) {
		return fmt.Errorf("%w: %d bytes", ErrTrailingBytes, len(d.data)-d.off)
	}
	return nil
}
