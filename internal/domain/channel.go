package domain

import "context"

// ChannelRole classifies a channel identifier against the two configured
// channels. Resolved once per message, then matched exhaustively.
type ChannelRole int

const (
	RoleUnrouted ChannelRole = iota
	RoleNotes
	RoleCommand
)

func (r ChannelRole) String() string {
	switch r {
	case RoleNotes:
		return "notes"
	case RoleCommand:
		return "command"
	default:
		return "unrouted"
	}
}

// Gateway is the chat platform seen from the relay: delete a message,
// fetch a channel's full backlog oldest-first, send a reply.
type Gateway interface {
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	ChannelHistory(ctx context.Context, channelID string) ([]Message, error)
	Send(ctx context.Context, channelID, content string) error
}
