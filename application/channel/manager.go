package channel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"

	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

type entry struct {
	handler Handler
	binding *binding
	conns   map[string]any
}

// Manager routes channel events to handlers and owns every connection,
// keyed by channel and user id. A connection moves from disconnected to
// connected on connect and back on close; reconnecting needs a new connect.
// Manager is not safe for concurrent use.
type Manager struct {
	channels map[string]*entry
	logger   *slog.Logger
	names    []string
}

// Option configures a Manager under construction.
type Option func(*managerBuilder)

type managerBuilder struct {
	handlers  map[string]Handler
	transport ports.ChannelTransport
	logger    *slog.Logger
	errors    []error
}

// NewManager builds a Manager. It fails on the first empty, duplicate or
// nil registration.
func NewManager(opts ...Option) (*Manager, error) {
	b := &managerBuilder{handlers: make(map[string]Handler)}
	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	m := &Manager{
		channels: make(map[string]*entry, len(b.handlers)),
		logger:   b.logger,
		names:    make([]string, 0, len(b.handlers)),
	}
	for name, h := range b.handlers {
		m.channels[name] = &entry{
			handler: h,
			binding: &binding{channel: name, transport: b.transport},
			conns:   make(map[string]any),
		}
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	return m, nil
}

// WithChannel registers h under name.
func WithChannel(name string, h Handler) Option {
	return func(b *managerBuilder) {
		switch {
		case name == "":
			b.errors = append(b.errors, &domainerrors.RegistrationError{Resource: "channel", Reason: "name cannot be empty"})
		case h == nil:
			b.errors = append(b.errors, &domainerrors.RegistrationError{Resource: "channel", Name: name, Reason: "handler is nil"})
		default:
			if _, exists := b.handlers[name]; exists {
				b.errors = append(b.errors, &domainerrors.RegistrationError{Resource: "channel", Name: name, Reason: "duplicate name"})
				return
			}
			b.handlers[name] = h
		}
	}
}

// WithTransport sets the host transport used by Send and Broadcast.
func WithTransport(t ports.ChannelTransport) Option {
	return func(b *managerBuilder) {
		b.transport = t
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *managerBuilder) {
		b.logger = logger
	}
}

func (m *Manager) lookup(channel string) (*entry, error) {
	e, ok := m.channels[channel]
	if !ok {
		return nil, &domainerrors.NotFoundError{Resource: "channel", Name: channel}
	}
	return e, nil
}

// Connect opens a connection for userID. A duplicate connect is rejected
// and leaves the live connection untouched. If the Connect hook fails the
// connection is discarded.
func (m *Manager) Connect(ctx context.Context, channel, userID string) error {
	e, err := m.lookup(channel)
	if err != nil {
		return err
	}
	if _, ok := e.conns[userID]; ok {
		return &domainerrors.StateError{Channel: channel, UserID: userID, Event: "connect", Reason: "already connected"}
	}

	var conn any
	err = m.invoke(channel, "connect", func() error {
		var hookErr error
		conn, hookErr = e.handler.open(ctx, e.binding, userID)
		return hookErr
	})
	if err != nil {
		return err
	}
	e.conns[userID] = conn
	return nil
}

// Data decodes payload and delivers it to userID's connection. A payload
// that does not decode is rejected; the connection stays open.
func (m *Manager) Data(ctx context.Context, channel, userID string, payload []byte) error {
	e, err := m.lookup(channel)
	if err != nil {
		return err
	}
	conn, ok := e.conns[userID]
	if !ok {
		return &domainerrors.StateError{Channel: channel, UserID: userID, Event: "data", Reason: "not connected"}
	}
	return m.invoke(channel, "data", func() error {
		return e.handler.data(ctx, conn, payload)
	})
}

// Interval runs the Interval hook with the live connections. It does not
// depend on any connection existing.
func (m *Manager) Interval(ctx context.Context, channel string) error {
	e, err := m.lookup(channel)
	if err != nil {
		return err
	}
	conns := make([]any, 0, len(e.conns))
	for _, c := range e.conns {
		conns = append(conns, c)
	}
	return m.invoke(channel, "interval", func() error {
		return e.handler.interval(ctx, e.binding, conns)
	})
}

// Close runs the Close hook and removes userID's connection. The entry is
// removed even when the hook fails.
func (m *Manager) Close(ctx context.Context, channel, userID string) error {
	e, err := m.lookup(channel)
	if err != nil {
		return err
	}
	conn, ok := e.conns[userID]
	if !ok {
		return &domainerrors.StateError{Channel: channel, UserID: userID, Event: "close", Reason: "not connected"}
	}
	defer delete(e.conns, userID)

	return m.invoke(channel, "close", func() error {
		return e.handler.close(ctx, conn)
	})
}

// invoke runs a hook, recovering panics and classifying unkinded errors as
// handler errors.
func (m *Manager) invoke(channel, event string, fn func() error) (err error) {
	name := channel + "." + event
	defer func() {
		if r := recover(); r != nil {
			err = &domainerrors.HandlerError{Handler: name, Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()

	if err = fn(); err != nil && !domainerrors.HasKind(err) {
		err = &domainerrors.HandlerError{Handler: name, Err: err}
	}
	return err
}

// Dispatch routes ev by event code. Failures are logged and reported in the
// returned Result; they never abort the instance.
func (m *Manager) Dispatch(ctx context.Context, ev wireformat.ChannelEvent) wireformat.Result {
	var err error
	switch ev.Code {
	case wireformat.EventConnect:
		err = m.Connect(ctx, ev.Channel, ev.UserID)
	case wireformat.EventData:
		err = m.Data(ctx, ev.Channel, ev.UserID, ev.Payload)
	case wireformat.EventInterval:
		err = m.Interval(ctx, ev.Channel)
	case wireformat.EventClose:
		err = m.Close(ctx, ev.Channel, ev.UserID)
	default:
		err = &domainerrors.DecodeError{Target: "channel event", Err: fmt.Errorf("unknown event code %d", uint8(ev.Code))}
	}

	if err != nil {
		m.logger.WarnContext(ctx, "channel event failed",
			slog.String("channel", ev.Channel),
			slog.String("user_id", ev.UserID),
			slog.String("event", ev.Code.String()),
			slog.String("kind", domainerrors.KindOf(err).String()),
			slog.Any("error", err))
		return wireformat.ErrFrom(err)
	}
	return wireformat.Ok(nil)
}

// DispatchBytes decodes a ChannelEvent envelope, dispatches it and returns
// the encoded acknowledgment.
func (m *Manager) DispatchBytes(ctx context.Context, raw []byte) []byte {
	var ev wireformat.ChannelEvent
	if err := ev.UnmarshalBinary(raw); err != nil {
		m.logger.WarnContext(ctx, "malformed channel event", slog.Any("error", err))
		return wireformat.EncodeResult(wireformat.ErrFrom(&domainerrors.DecodeError{Target: "channel event", Err: err}))
	}
	return wireformat.EncodeResult(m.Dispatch(ctx, ev))
}

// Connected reports whether userID has a live connection on channel.
func (m *Manager) Connected(channel, userID string) bool {
	e, ok := m.channels[channel]
	if !ok {
		return false
	}
	_, ok = e.conns[userID]
	return ok
}

// Connections returns the connected user ids on channel, sorted.
func (m *Manager) Connections(channel string) []string {
	e, ok := m.channels[channel]
	if !ok {
		return nil
	}
	users := make([]string, 0, len(e.conns))
	for u := range e.conns {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Names returns the registered channel names, sorted.
func (m *Manager) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Handler returns the handler registered under name.
func (m *Manager) Handler(name string) (Handler, bool) {
	e, ok := m.channels[name]
	if !ok {
		return nil, false
	}
	return e.handler, true
}
