package hostfuncs

import (
	"context"
	"encoding"

	"github.com/turbo-genesis/turbo-go/wireformat"
)

// ByteHandler is a function that accepts raw request bytes and returns raw
// reply bytes. This is the common interface the WASM runtime adapter uses.
// A non-nil error means the host itself failed; the adapter encodes it.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// ResultFunc is a host function body whose outcome the guest sees as a
// wireformat.Result.
type ResultFunc func(ctx context.Context, payload []byte) ([]byte, error)

// NewResultHandler wraps fn so its return values are encoded as Ok(payload)
// or Err(kind, message). Handler errors never escape as Go errors.
func NewResultHandler(fn ResultFunc) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		out, err := fn(ctx, payload)
		return encodeOutcome(out, err), nil
	}
}

// envelope is satisfied by pointers to the wireformat request envelopes.
type envelope[T any] interface {
	*T
	encoding.BinaryUnmarshaler
}

// NewEnvelopeHandler wraps a typed host function. The request is decoded
// with its UnmarshalBinary; a malformed request is answered with a
// DecodeError result.
//
// Usage:
//
//	send := hostfuncs.NewEnvelopeHandler(func(ctx context.Context, msg wireformat.ChannelOutbound) ([]byte, error) {
//	    return nil, transport.Send(ctx, msg.Channel, msg.UserID, msg.Payload)
//	})
func NewEnvelopeHandler[Req any, PReq envelope[Req]](fn func(context.Context, Req) ([]byte, error)) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := PReq(&req).UnmarshalBinary(payload); err != nil {
			name := "request"
			if hc, ok := ctx.(HostContext); ok {
				name = hc.FunctionName() + " request"
			}
			return NewDecodeError(name, err), nil
		}
		out, err := fn(ctx, req)
		return encodeOutcome(out, err), nil
	}
}

func encodeOutcome(payload []byte, err error) []byte {
	if err != nil {
		return wireformat.EncodeResult(wireformat.ErrFrom(err))
	}
	return wireformat.EncodeResult(wireformat.Ok(payload))
}
