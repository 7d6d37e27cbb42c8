package hostfuncs

import (
	"fmt"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// NewNotFoundError encodes the reply for an unknown host function.
func NewNotFoundError(name string) []byte {
	return wireformat.EncodeResult(wireformat.ErrFrom(&domainerrors.NotFoundError{Resource: "host function", Name: name}))
}

// NewDecodeError encodes the reply for a request the handler cannot parse.
func NewDecodeError(target string, err error) []byte {
	return wireformat.EncodeResult(wireformat.ErrFrom(&domainerrors.DecodeError{Target: target, Err: err}))
}

// NewPanicError encodes the reply for a recovered panic.
func NewPanicError(panicValue any) []byte {
	var msg string
	switch v := panicValue.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	default:
		msg = fmt.Sprintf("%v", v)
	}
	return wireformat.EncodeResult(wireformat.Err(entities.ErrorKindHandler, "panic: "+msg))
}
