package hostfuncs

import (
	"context"
	"log/slog"

	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// Host function names in the "turbo" import module.
const (
	FuncHotLoad     = "hot_load"
	FuncHotSave     = "hot_save"
	FuncChannelSend = "channel_send"
	FuncWatch       = "watch"
	FuncLog         = "log"
)

// HostFuncBundle is a pre-configured set of related host functions.
// Bundles allow registering multiple handlers at once.
type HostFuncBundle interface {
	// Handlers returns a map of handler names to ByteHandler functions.
	Handlers() map[string]ByteHandler
}

type staticBundle struct {
	handlers map[string]ByteHandler
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

// StateBundle returns hot_load and hot_save backed by store.
func StateBundle(store ports.StateStore) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			FuncHotLoad: NewResultHandler(func(ctx context.Context, _ []byte) ([]byte, error) {
				return store.Load(ctx)
			}),
			FuncHotSave: NewResultHandler(func(ctx context.Context, payload []byte) ([]byte, error) {
				return nil, store.Save(ctx, payload)
			}),
		},
	}
}

// ChannelBundle returns channel_send backed by transport.
func ChannelBundle(transport ports.ChannelTransport) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			FuncChannelSend: NewEnvelopeHandler(func(ctx context.Context, msg wireformat.ChannelOutbound) ([]byte, error) {
				if msg.Broadcast {
					return nil, transport.Broadcast(ctx, msg.Channel, msg.Payload)
				}
				return nil, transport.Send(ctx, msg.Channel, msg.UserID, msg.Payload)
			}),
		},
	}
}

// WatchBundle returns watch backed by sink.
func WatchBundle(sink ports.WatchSink) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			FuncWatch: NewResultHandler(func(ctx context.Context, payload []byte) ([]byte, error) {
				return nil, sink.Watch(ctx, string(payload))
			}),
		},
	}
}

// LogBundle returns the log sink writing to logger.
func LogBundle(logger *slog.Logger) HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			FuncLog: NewLogSink(logger),
		},
	}
}

type compositeBundle struct {
	bundles []HostFuncBundle
}

func (b *compositeBundle) Handlers() map[string]ByteHandler {
	result := make(map[string]ByteHandler)
	for _, bundle := range b.bundles {
		for name, handler := range bundle.Handlers() {
			result[name] = handler
		}
	}
	return result
}

// Collaborators are the host-side implementations behind the turbo imports.
type Collaborators struct {
	Store     ports.StateStore
	Transport ports.ChannelTransport
	Watch     ports.WatchSink
	Logger    *slog.Logger
}

// AllBundles returns every turbo host function backed by c. Nil
// collaborators get in-memory defaults.
func AllBundles(c Collaborators) HostFuncBundle {
	if c.Store == nil {
		c.Store = NewHotStore()
	}
	if c.Transport == nil {
		c.Transport = NewOutbox()
	}
	if c.Watch == nil {
		c.Watch = NewWatchList(nil)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return &compositeBundle{
		bundles: []HostFuncBundle{
			StateBundle(c.Store),
			ChannelBundle(c.Transport),
			WatchBundle(c.Watch),
			LogBundle(c.Logger),
		},
	}
}

// WithBundle registers all handlers from a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for name, handler := range bundle.Handlers() {
			if err := b.addHandler(name, handler); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}
