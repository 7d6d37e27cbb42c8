package channel

import (
	"context"

	"github.com/turbo-genesis/turbo-go/wireformat"
)

// Conn is one live connection. State is owned by the manager for the life
// of the connection and discarded on close.
type Conn[Send, State any] struct {
	State  *State
	b      *binding
	userID string
}

// UserID returns the connected user.
func (c *Conn[Send, State]) UserID() string { return c.userID }

// Channel returns the channel name the connection belongs to.
func (c *Conn[Send, State]) Channel() string { return c.b.channel }

// Send encodes msg and queues it for this connection's user.
func (c *Conn[Send, State]) Send(ctx context.Context, msg Send) error {
	data, err := wireformat.Marshal(msg)
	if err != nil {
		return err
	}
	return c.b.send(ctx, c.userID, data)
}

// Broadcast encodes msg and queues it for every user on the channel.
func (c *Conn[Send, State]) Broadcast(ctx context.Context, msg Send) error {
	data, err := wireformat.Marshal(msg)
	if err != nil {
		return err
	}
	return c.b.broadcast(ctx, data)
}

// Peers is the set of live connections handed to the Interval hook.
type Peers[Send, State any] struct {
	b     *binding
	conns []*Conn[Send, State]
}

// Len returns the number of live connections.
func (p *Peers[Send, State]) Len() int { return len(p.conns) }

// Each calls fn for every connection ordered by user id, stopping at the
// first error.
func (p *Peers[Send, State]) Each(fn func(conn *Conn[Send, State]) error) error {
	for _, c := range p.conns {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

// Broadcast encodes msg and queues it for every user on the channel.
func (p *Peers[Send, State]) Broadcast(ctx context.Context, msg Send) error {
	data, err := wireformat.Marshal(msg)
	if err != nil {
		return err
	}
	return p.b.broadcast(ctx, data)
}
