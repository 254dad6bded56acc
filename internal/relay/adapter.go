// Package relay forwards stored notifications to a team chat channel.
package relay

import "context"

// Adapter is the interface platform-specific senders satisfy.
type Adapter interface {
	// Platform names the chat platform, e.g. "slack".
	Platform() string

	// Send delivers one message to the platform.
	Send(ctx context.Context, msg Message) error
}

// Message is one notification rendered for chat.
type Message struct {
	ChannelID string // target channel; empty means the adapter default
	Text      string // rendered notification text
	Title     string
	Link      string  // absolute link to the review page, if any
	Fields    []Field // key-value metadata shown with the message
}

// Field is a key-value pair displayed with a message.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}
