package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/turbo-genesis/turbo-go/wireformat"
)

// DefaultMaxRequestSize limits the size of a single guest request (8MB).
// It sits above the hot state capacity so hot_save can report its own
// capacity error.
const DefaultMaxRequestSize = 8 * 1024 * 1024

// Middleware is a function that wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that catches panics and
// answers with an encoded HandlerError instead of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = NewPanicError(r)
					err = nil
				}
			}()
			return next(ctx, payload)
		}
	}
}

// RequestLimitMiddleware rejects requests larger than limit before they
// reach the handler.
func RequestLimitMiddleware(limit int) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			if len(payload) > limit {
				return NewDecodeError("request", fmt.Errorf("%d bytes exceeds limit of %d", len(payload), limit)), nil
			}
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware logs every host function call at debug level and every
// Err result at warn level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			funcName, programID := "unknown", ""
			if hc, ok := ctx.(HostContext); ok {
				funcName, programID = hc.FunctionName(), hc.ProgramID()
			}
			attrs := []any{
				slog.String("function", funcName),
				slog.Int("request_bytes", len(payload)),
			}
			if programID != "" {
				attrs = append(attrs, slog.String("program_id", programID))
			}

			start := time.Now()
			resp, err := next(ctx, payload)
			attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))

			switch {
			case err != nil:
				logger.ErrorContext(ctx, "host function failed", append(attrs, slog.Any("error", err))...)
			case resp != nil && !isOk(resp):
				res, _ := wireformat.DecodeResult(resp)
				logger.WarnContext(ctx, "host function returned error",
					append(attrs, slog.String("kind", res.Kind.String()), slog.String("message", res.Message))...)
			default:
				logger.DebugContext(ctx, "host function completed", attrs...)
			}
			return resp, err
		}
	}
}

func isOk(resp []byte) bool {
	res, err := wireformat.DecodeResult(resp)
	return err == nil && res.OK
}
