// Package channel manages duplex channel connections and routes their
// lifecycle events to registered hooks.
package channel

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"time"

	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// ErrNoTransport is returned by Send and Broadcast when the manager was
// built without a transport.
var ErrNoTransport = errors.New("channel transport not configured")

// Settings are produced once by the Open hook when a channel is registered.
type Settings struct {
	// Interval is how often the host should deliver interval events.
	// Zero means never.
	Interval time.Duration
}

// Hooks are the callbacks of one channel. Send is the host-to-client message
// type, Recv the client-to-host type, and State the per-connection state,
// allocated zeroed on connect. Only Data is required.
type Hooks[Send, Recv, State any] struct {
	Open     func(s *Settings)
	Connect  func(ctx context.Context, conn *Conn[Send, State]) error
	Data     func(ctx context.Context, conn *Conn[Send, State], msg Recv) error
	Interval func(ctx context.Context, peers *Peers[Send, State]) error
	Close    func(ctx context.Context, conn *Conn[Send, State]) error
}

// Handler is a registered channel. It is created by New and consumed by
// Manager; its methods beyond the exported accessors are internal.
type Handler interface {
	Settings() Settings
	SendType() reflect.Type
	RecvType() reflect.Type

	open(ctx context.Context, b *binding, userID string) (any, error)
	data(ctx context.Context, conn any, payload []byte) error
	interval(ctx context.Context, b *binding, conns []any) error
	close(ctx context.Context, conn any) error
}

// binding ties a handler to the name it was registered under.
type binding struct {
	transport ports.ChannelTransport
	channel   string
}

func (b *binding) send(ctx context.Context, userID string, payload []byte) error {
	if b.transport == nil {
		return ErrNoTransport
	}
	return b.transport.Send(ctx, b.channel, userID, payload)
}

func (b *binding) broadcast(ctx context.Context, payload []byte) error {
	if b.transport == nil {
		return ErrNoTransport
	}
	return b.transport.Broadcast(ctx, b.channel, payload)
}

type handler[Send, Recv, State any] struct {
	hooks    Hooks[Send, Recv, State]
	settings Settings
}

// New builds a channel Handler from hooks. Open, if set, runs here.
func New[Send, Recv, State any](hooks Hooks[Send, Recv, State]) (Handler, error) {
	if hooks.Data == nil {
		return nil, &domainerrors.RegistrationError{Resource: "channel", Reason: "Data hook is required"}
	}

	h := &handler[Send, Recv, State]{hooks: hooks}
	if hooks.Open != nil {
		hooks.Open(&h.settings)
	}
	if h.settings.Interval < 0 {
		return nil, &domainerrors.RegistrationError{Resource: "channel", Reason: "interval cannot be negative"}
	}
	return h, nil
}

func (h *handler[Send, Recv, State]) Settings() Settings { return h.settings }

func (h *handler[Send, Recv, State]) SendType() reflect.Type { return reflect.TypeFor[Send]() }

func (h *handler[Send, Recv, State]) RecvType() reflect.Type { return reflect.TypeFor[Recv]() }

func (h *handler[Send, Recv, State]) open(ctx context.Context, b *binding, userID string) (any, error) {
	conn := &Conn[Send, State]{State: new(State), userID: userID, b: b}
	if h.hooks.Connect != nil {
		if err := h.hooks.Connect(ctx, conn); err != nil {
			return nil, err
		}
	}
	return conn, nil
}

func (h *handler[Send, Recv, State]) data(ctx context.Context, c any, payload []byte) error {
	var msg Recv
	if err := wireformat.Unmarshal(payload, &msg); err != nil {
		return &domainerrors.DecodeError{Target: "channel message", Err: err}
	}
	return h.hooks.Data(ctx, c.(*Conn[Send, State]), msg)
}

func (h *handler[Send, Recv, State]) interval(ctx context.Context, b *binding, conns []any) error {
	if h.hooks.Interval == nil {
		return nil
	}
	peers := &Peers[Send, State]{b: b, conns: make([]*Conn[Send, State], 0, len(conns))}
	for _, c := range conns {
		peers.conns = append(peers.conns, c.(*Conn[Send, State]))
	}
	sort.Slice(peers.conns, func(i, j int) bool {
		return peers.conns[i].userID < peers.conns[j].userID
	})
	return h.hooks.Interval(ctx, peers)
}

func (h *handler[Send, Recv, State]) close(ctx context.Context, c any) error {
	if h.hooks.Close == nil {
		return nil
	}
	return h.hooks.Close(ctx, c.(*Conn[Send, State]))
}
