// Package platform abstracts the Discord client behind a narrow interface so
// the session manager and dispatcher can be tested against a fake.
package platform

import (
	"context"
	"time"
)

// Channel is a resolved reference to a text-capable guild channel.
type Channel struct {
	ID      string
	Name    string
	GuildID string
}

// Reaction is one emoji reaction aggregate on a message.
type Reaction struct {
	Emoji string
	Count int
	Me    bool // the bot itself reacted
}

// Message is a transient record from a channel history fetch. Never persisted.
type Message struct {
	ID        string
	Timestamp time.Time
	Author    string
	Content   string
	Reactions []Reaction
}

// HasReaction reports whether any user reacted with the given emoji.
func (m Message) HasReaction(emoji string) bool {
	for _, r := range m.Reactions {
		if r.Emoji == emoji {
			return true
		}
	}
	return false
}

// HasOwnReaction reports whether the bot itself reacted with the given emoji.
func (m Message) HasOwnReaction(emoji string) bool {
	for _, r := range m.Reactions {
		if r.Emoji == emoji && r.Me {
			return true
		}
	}
	return false
}

// EventKind classifies gateway lifecycle events.
type EventKind int

const (
	EventReady EventKind = iota
	EventError
	EventDisconnected
	EventResumed
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventError:
		return "error"
	case EventDisconnected:
		return "disconnected"
	case EventResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// Event is a gateway lifecycle signal delivered to the session manager.
type Event struct {
	Kind EventKind
	Err  error // set for EventError
}

// Client is the platform surface the core depends on. Open begins the login
// sequence; completion is signaled by an EventReady or EventError delivered
// to the registered event handler, not by Open returning.
type Client interface {
	// OnEvent registers the lifecycle event sink. Must be called before Open.
	OnEvent(handler func(Event))

	// Open starts the gateway connection. A nil return means the handshake
	// was initiated, not that the session is Ready.
	Open(ctx context.Context) error

	// Close tears down the gateway connection.
	Close() error

	// Channels enumerates every text-capable channel across all joined
	// guilds, in the platform cache's iteration order.
	Channels() []Channel

	// Messages fetches up to limit recent messages from a channel,
	// newest first.
	Messages(ctx context.Context, channelID string, limit int) ([]Message, error)

	// Send posts a message to a channel.
	Send(ctx context.Context, channelID, content string) error

	// React adds the bot's reaction to a message.
	React(ctx context.Context, channelID, messageID, emoji string) error

	// RemoveReaction removes the bot's own reaction from a message.
	RemoveReaction(ctx context.Context, channelID, messageID, emoji string) error

	// Delete removes a message.
	Delete(ctx context.Context, channelID, messageID string) error
}
