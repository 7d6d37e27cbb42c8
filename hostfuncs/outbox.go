package hostfuncs

import (
	"context"
	"sync"

	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// Outbox records channel messages the guest asks the host to deliver.
// Client delivery is outside this package; a relay callback or Drain hands
// the messages to whatever owns the client connections.
type Outbox struct {
	relay    func(wireformat.ChannelOutbound)
	messages []wireformat.ChannelOutbound
	mu       sync.Mutex
}

var _ ports.ChannelTransport = (*Outbox)(nil)

// OutboxOption configures an Outbox.
type OutboxOption func(*Outbox)

// WithRelay calls fn for every message as it is queued.
func WithRelay(fn func(wireformat.ChannelOutbound)) OutboxOption {
	return func(o *Outbox) {
		o.relay = fn
	}
}

// NewOutbox creates an empty Outbox.
func NewOutbox(opts ...OutboxOption) *Outbox {
	o := &Outbox{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Send queues payload for one user.
func (o *Outbox) Send(_ context.Context, channel, userID string, payload []byte) error {
	o.push(wireformat.ChannelOutbound{Channel: channel, UserID: userID, Payload: payload})
	return nil
}

// Broadcast queues payload for every user on channel.
func (o *Outbox) Broadcast(_ context.Context, channel string, payload []byte) error {
	o.push(wireformat.ChannelOutbound{Channel: channel, Payload: payload, Broadcast: true})
	return nil
}

func (o *Outbox) push(msg wireformat.ChannelOutbound) {
	msg.Payload = append([]byte(nil), msg.Payload...)
	o.mu.Lock()
	o.messages = append(o.messages, msg)
	o.mu.Unlock()
	if o.relay != nil {
		o.relay(msg)
	}
}

// Drain returns the queued messages in order and empties the outbox.
func (o *Outbox) Drain() []wireformat.ChannelOutbound {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.messages
	o.messages = nil
	return out
}

// Len returns the number of queued messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}
