package wireformat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/near/borsh-go"
)

// ErrUnsupportedType is returned when a value type has no Borsh layout.
var ErrUnsupportedType = errors.New("wireformat: type has no borsh layout")

// Marshal encodes a value with Borsh. Use it for game state and typed
// command or channel payloads. Struct fields are encoded in declaration
// order; use fixed-width integer types, since int and uint are not portable
// between the guest and the host.
func Marshal(v any) ([]byte, error) {
	data, err := borsh.Serialize(v)
	if err != nil {
		return nil, fmt.Errorf("wireformat: marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal decodes Borsh data into the value pointed to by v. The data
// must hold exactly one value: a length prefix longer than the remaining
// input fails with ErrTruncated and unread input with ErrTrailingBytes.
// Both are checked before anything is allocated.
func Unmarshal(data []byte, v any) (err error) {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Pointer {
		return fmt.Errorf("wireformat: unmarshal %T: target must be a pointer", v)
	}
	if err := checkLayout(t.Elem(), data); err != nil {
		return fmt.Errorf("wireformat: unmarshal %T: %w", v, err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("wireformat: unmarshal %T: %v", v, r)
		}
	}()
	if err := borsh.Deserialize(v, data); err != nil {
		return fmt.Errorf("wireformat: unmarshal %T: %w", v, err)
	}
	return nil
}

// Decode is a typed convenience over Unmarshal.
func Decode[T any](data []byte) (T, error) {
	var v T
	err := Unmarshal(data, &v)
	return v, err
}

var bigIntType = reflect.TypeFor[big.Int]()

// checkLayout walks t's Borsh layout over data and requires it to consume
// every byte.
func checkLayout(t reflect.Type, data []byte) error {
	s := layoutScanner{data: data}
	if err := s.value(t); err != nil {
		return err
	}
	if rest := len(s.data) - s.off; rest > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingBytes, rest)
	}
	return nil
}

type layoutScanner struct {
	data []byte
	off  int
}

func (s *layoutScanner) skip(n int) error {
	if n < 0 || len(s.data)-s.off < n {
		return ErrTruncated
	}
	s.off += n
	return nil
}

func (s *layoutScanner) u8() (uint8, error) {
	if err := s.skip(1); err != nil {
		return 0, err
	}
	return s.data[s.off-1], nil
}

// length reads a u32 prefix. Every element or byte it counts takes at
// least one byte, so a count above the remaining input is corrupt.
func (s *layoutScanner) length() (int, error) {
	if err := s.skip(4); err != nil {
		return 0, err
	}
	n := binary.LittleEndian.Uint32(s.data[s.off-4:])
	if uint64(n) > uint64(len(s.data)-s.off) {
		return 0, fmt.Errorf("%w: length %d exceeds remaining %d bytes", ErrTruncated, n, len(s.data)-s.off)
	}
	return int(n), nil
}

func (s *layoutScanner) value(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return s.skip(1)
	case reflect.Int16, reflect.Uint16:
		return s.skip(2)
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return s.skip(4)
	case reflect.Int64, reflect.Uint64, reflect.Int, reflect.Uint, reflect.Float64:
		return s.skip(8)
	case reflect.String:
		n, err := s.length()
		if err != nil {
			return err
		}
		return s.skip(n)
	case reflect.Array:
		for range t.Len() {
			if err := s.value(t.Elem()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice:
		n, err := s.length()
		if err != nil {
			return err
		}
		for range n {
			if err := s.value(t.Elem()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		n, err := s.length()
		if err != nil {
			return err
		}
		for range n {
			if err := s.value(t.Key()); err != nil {
				return err
			}
			if err := s.value(t.Elem()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Pointer:
		present, err := s.u8()
		if err != nil || present == 0 {
			return err
		}
		return s.value(t.Elem())
	case reflect.Struct:
		return s.structValue(t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

func (s *layoutScanner) structValue(t reflect.Type) error {
	if t == bigIntType {
		return s.skip(16)
	}
	if t.NumField() > 0 {
		first := t.Field(0)
		if first.Type.Kind() == reflect.Uint8 && first.Tag.Get("borsh_enum") == "true" {
			variant, err := s.u8()
			if err != nil {
				return err
			}
			if int(variant)+1 >= t.NumField() {
				return fmt.Errorf("wireformat: enum variant %d out of range for %s", variant, t)
			}
			return s.value(t.Field(int(variant) + 1).Type)
		}
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Tag.Get("borsh_skip") == "true" {
			continue
		}
		if err := s.value(f.Type); err != nil {
			return err
		}
	}
	return nil
}
