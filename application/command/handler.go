// Package command dispatches named client commands to registered handlers.
package command

import (
	"context"
	"reflect"

	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// Handler runs a command for userID. The payload and the returned bytes are
// opaque to the dispatcher.
type Handler interface {
	Run(ctx context.Context, userID string, payload []byte) ([]byte, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, userID string, payload []byte) ([]byte, error)

// Run implements Handler.
func (f HandlerFunc) Run(ctx context.Context, userID string, payload []byte) ([]byte, error) {
	return f(ctx, userID, payload)
}

// PayloadTyper is implemented by handlers that know their payload type. The
// manifest uses it to describe the command.
type PayloadTyper interface {
	PayloadType() reflect.Type
}

type typedHandler[Req, Resp any] struct {
	fn func(ctx context.Context, userID string, req Req) (Resp, error)
}

// Typed wraps fn so the request payload is decoded into Req and the response
// encoded from Resp with the value codec. A payload that does not decode
// fails with a DecodeError before fn is called.
func Typed[Req, Resp any](fn func(ctx context.Context, userID string, req Req) (Resp, error)) Handler {
	return &typedHandler[Req, Resp]{fn: fn}
}

func (h *typedHandler[Req, Resp]) Run(ctx context.Context, userID string, payload []byte) ([]byte, error) {
	var req Req
	if err := wireformat.Unmarshal(payload, &req); err != nil {
		return nil, &domainerrors.DecodeError{Target: "command payload", Err: err}
	}

	resp, err := h.fn(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	return wireformat.Marshal(resp)
}

func (h *typedHandler[Req, Resp]) PayloadType() reflect.Type {
	return reflect.TypeFor[Req]()
}

// Empty is a payload with no fields, for commands that take no input or
// return nothing.
type Empty struct{}
