package hostfuncs

import (
	"context"
	"fmt"
	"sort"
)

// HandlerRegistry is an immutable collection of named host functions.
// Once created via NewRegistry, handlers cannot be added or removed,
// so lookups during execution need no locks.
type HandlerRegistry struct {
	handlers map[string]ByteHandler
	names    []string // sorted for consistent iteration
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	handlers   map[string]ByteHandler
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable HandlerRegistry with the given options.
// Returns an error if any handler name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware(), LoggingMiddleware(logger)),
//	    WithBundle(StateBundle(NewHotStore())),
//	    WithBundle(ChannelBundle(NewOutbox())),
//	)
func NewRegistry(opts ...RegistryOption) (*HandlerRegistry, error) {
	b := &registryBuilder{
		handlers: make(map[string]ByteHandler),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	// First middleware wraps outermost.
	wrappedHandlers := make(map[string]ByteHandler, len(b.handlers))
	for name, handler := range b.handlers {
		wrapped := handler
		for i := len(b.middleware) - 1; i >= 0; i-- {
			wrapped = b.middleware[i](wrapped)
		}
		wrappedHandlers[name] = wrapped
	}

	return &HandlerRegistry{
		handlers: wrappedHandlers,
		names:    names,
	}, nil
}

// Invoke dispatches a host function call by name. An unknown name is
// answered with an encoded NotFound result, not a Go error.
func (r *HandlerRegistry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return NewNotFoundError(name), nil
	}

	hctx := HostContextFrom(ctx, name)
	return handler(hctx, payload)
}

// Has returns true if a handler with the given name is registered.
func (r *HandlerRegistry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns a sorted list of all registered handler names.
func (r *HandlerRegistry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

func (b *registryBuilder) addHandler(name string, handler ByteHandler) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler %q is nil", name)
	}
	if _, exists := b.handlers[name]; exists {
		return fmt.Errorf("duplicate handler name: %q", name)
	}
	b.handlers[name] = handler
	return nil
}

// WithByteHandler registers a raw ByteHandler with the given name.
func WithByteHandler(name string, handler ByteHandler) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addHandler(name, handler); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithResultHandler registers fn wrapped by NewResultHandler.
func WithResultHandler(name string, fn ResultFunc) RegistryOption {
	return WithByteHandler(name, NewResultHandler(fn))
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
