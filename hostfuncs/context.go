package hostfuncs

import (
	"context"
)

// HostContext wraps a standard context.Context with host function-specific helpers.
// It carries the invoked function name and the calling program, and lets
// middleware store request-scoped values without polluting the standard context.
type HostContext interface {
	context.Context

	// FunctionName returns the name of the host function being invoked.
	FunctionName() string

	// ProgramID returns the id of the calling program, if the host set one.
	ProgramID() string

	// SetValue stores a request-scoped value. Unlike context.WithValue,
	// this mutates the existing HostContext.
	SetValue(key, value any)

	// GetValue retrieves a request-scoped value set by SetValue.
	GetValue(key any) (value any, ok bool)
}

type programKey struct{}

// WithProgramID records the calling program on ctx. The executor sets it
// once per instance.
func WithProgramID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, programKey{}, id)
}

type hostContext struct {
	context.Context
	values   map[any]any
	funcName string
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, funcName string) HostContext {
	return &hostContext{
		Context:  ctx,
		funcName: funcName,
		values:   make(map[any]any),
	}
}

func (c *hostContext) FunctionName() string {
	return c.funcName
}

func (c *hostContext) ProgramID() string {
	id, _ := c.Value(programKey{}).(string)
	return id
}

func (c *hostContext) SetValue(key, value any) {
	c.values[key] = value
}

func (c *hostContext) GetValue(key any) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// HostContextFrom extracts a HostContext from a context.Context.
// If the context is already a HostContext, it is returned directly.
func HostContextFrom(ctx context.Context, funcName string) HostContext {
	if hc, ok := ctx.(HostContext); ok {
		return hc
	}
	return NewHostContext(ctx, funcName)
}
