package ports

import "context"

// ChannelTransport delivers encoded channel messages to connected clients.
// Delivery itself is the host's concern.
type ChannelTransport interface {
	// Send queues payload for a single user on channel.
	Send(ctx context.Context, channel, userID string, payload []byte) error

	// Broadcast queues payload for every user connected to channel.
	Broadcast(ctx context.Context, channel string, payload []byte) error
}
