package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
)

// Middleware wraps a Handler to add cross-cutting behavior. Middleware
// executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next Handler) Handler

type nameKey struct{}

// WithName returns a context carrying the command name being dispatched.
func WithName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, nameKey{}, name)
}

// NameFrom returns the command name carried by ctx.
func NameFrom(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(nameKey{}).(string)
	return name, ok
}

// PanicRecoveryMiddleware turns a handler panic into a HandlerError so a
// misbehaving command cannot take down the instance.
func PanicRecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, userID string, payload []byte) (out []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					name, _ := NameFrom(ctx)
					out = nil
					err = &domainerrors.HandlerError{
						Handler: name,
						Err:     fmt.Errorf("panic: %v", r),
						Stack:   debug.Stack(),
					}
				}
			}()
			return next.Run(ctx, userID, payload)
		})
	}
}

// LoggingMiddleware logs every command invocation and its outcome.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, userID string, payload []byte) ([]byte, error) {
			name, _ := NameFrom(ctx)
			start := time.Now()

			out, err := next.Run(ctx, userID, payload)

			attrs := []any{
				slog.String("command", name),
				slog.String("user_id", userID),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.WarnContext(ctx, "command failed", append(attrs, slog.String("kind", domainerrors.KindOf(err).String()), slog.Any("error", err))...)
			} else {
				logger.DebugContext(ctx, "command completed", append(attrs, slog.Int("bytes", len(out)))...)
			}
			return out, err
		})
	}
}
