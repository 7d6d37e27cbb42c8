package command

import (
	"context"
	"log/slog"
	"sort"

	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// Dispatcher is an immutable registry of command handlers. Lookups take no
// locks; the host never dispatches concurrently into one instance.
type Dispatcher struct {
	handlers map[string]Handler
	wrapped  map[string]Handler
	logger   *slog.Logger
	names    []string
}

// Option configures a Dispatcher under construction.
type Option func(*dispatcherBuilder)

type dispatcherBuilder struct {
	handlers   map[string]Handler
	logger     *slog.Logger
	middleware []Middleware
	errors     []error
}

// NewDispatcher builds a Dispatcher. It fails on the first empty, duplicate
// or nil registration.
//
//	d, err := command.NewDispatcher(
//	    command.WithMiddleware(command.PanicRecoveryMiddleware()),
//	    command.WithHandler("greet", command.Typed(greet)),
//	)
func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	b := &dispatcherBuilder{handlers: make(map[string]Handler)}
	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	// First middleware wraps outermost.
	wrapped := make(map[string]Handler, len(b.handlers))
	for name, h := range b.handlers {
		w := h
		for i := len(b.middleware) - 1; i >= 0; i-- {
			w = b.middleware[i](w)
		}
		wrapped[name] = w
	}

	return &Dispatcher{
		handlers: b.handlers,
		wrapped:  wrapped,
		logger:   b.logger,
		names:    names,
	}, nil
}

// WithHandler registers h under name.
func WithHandler(name string, h Handler) Option {
	return func(b *dispatcherBuilder) {
		if err := b.add(name, h); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithHandlerFunc registers fn under name.
func WithHandlerFunc(name string, fn func(ctx context.Context, userID string, payload []byte) ([]byte, error)) Option {
	if fn == nil {
		return WithHandler(name, nil)
	}
	return WithHandler(name, HandlerFunc(fn))
}

// WithMiddleware adds middleware. The first middleware added wraps outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(b *dispatcherBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *dispatcherBuilder) {
		b.logger = logger
	}
}

func (b *dispatcherBuilder) add(name string, h Handler) error {
	if name == "" {
		return &domainerrors.RegistrationError{Resource: "command", Reason: "name cannot be empty"}
	}
	if h == nil {
		return &domainerrors.RegistrationError{Resource: "command", Name: name, Reason: "handler is nil"}
	}
	if _, exists := b.handlers[name]; exists {
		return &domainerrors.RegistrationError{Resource: "command", Name: name, Reason: "duplicate name"}
	}
	b.handlers[name] = h
	return nil
}

// Dispatch runs the handler registered under req.Name. Names match exactly.
// Every outcome is reported in the Result; Dispatch itself never fails.
func (d *Dispatcher) Dispatch(ctx context.Context, req wireformat.CommandRequest) wireformat.Result {
	h, ok := d.wrapped[req.Name]
	if !ok {
		err := &domainerrors.NotFoundError{Resource: "command", Name: req.Name}
		d.logger.WarnContext(ctx, "unknown command", slog.String("command", req.Name))
		return wireformat.ErrFrom(err)
	}

	out, err := h.Run(WithName(ctx, req.Name), req.UserID, req.Payload)
	if err != nil {
		if !domainerrors.HasKind(err) {
			err = &domainerrors.HandlerError{Handler: req.Name, Err: err}
		}
		return wireformat.ErrFrom(err)
	}
	return wireformat.Ok(out)
}

// DispatchBytes decodes a CommandRequest envelope, dispatches it and returns
// the encoded Result. A malformed envelope yields Err(DecodeError).
func (d *Dispatcher) DispatchBytes(ctx context.Context, raw []byte) []byte {
	var req wireformat.CommandRequest
	if err := req.UnmarshalBinary(raw); err != nil {
		d.logger.WarnContext(ctx, "malformed command request", slog.Any("error", err))
		return wireformat.EncodeResult(wireformat.ErrFrom(&domainerrors.DecodeError{Target: "command request", Err: err}))
	}
	return wireformat.EncodeResult(d.Dispatch(ctx, req))
}

// Has reports whether a handler is registered under name.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Handler returns the unwrapped handler registered under name.
func (d *Dispatcher) Handler(name string) (Handler, bool) {
	h, ok := d.handlers[name]
	return h, ok
}

// Names returns the registered command names, sorted.
func (d *Dispatcher) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}
