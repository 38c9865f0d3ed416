package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/soyeahso/mcp-discord/internal/domain"
	"github.com/soyeahso/mcp-discord/internal/logging"
)

// Discord implements Client over a discordgo session.
type Discord struct {
	session *discordgo.Session
	log     *logging.Logger

	mu      sync.RWMutex
	handler func(Event)
}

// NewDiscord builds a Discord client for the given bot token. The returned
// client is not connected; call Open.
func NewDiscord(token string, log *logging.Logger) (*Discord, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord client: %w", err)
	}

	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	d := &Discord{
		session: s,
		log:     log.Sub("discord"),
	}

	s.AddHandler(d.onReady)
	s.AddHandler(d.onDisconnect)
	s.AddHandler(d.onResumed)

	return d, nil
}

func (d *Discord) OnEvent(handler func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handler = handler
}

func (d *Discord) emit(ev Event) {
	d.mu.RLock()
	handler := d.handler
	d.mu.RUnlock()
	if handler != nil {
		handler(ev)
	}
}

func (d *Discord) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	d.log.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("discord gateway ready")
	d.emit(Event{Kind: EventReady})
}

func (d *Discord) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	d.log.Warn().Msg("discord gateway disconnected")
	d.emit(Event{Kind: EventDisconnected})
}

func (d *Discord) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	d.log.Info().Msg("discord gateway resumed")
	d.emit(Event{Kind: EventResumed})
}

// Open starts the gateway handshake. The Ready signal arrives via OnEvent.
func (d *Discord) Open(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.session.Open()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("discord open: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Discord) Close() error {
	return d.session.Close()
}

// Channels walks the state cache in its natural order. The cache is only
// populated once the session has been Ready at least once.
func (d *Discord) Channels() []Channel {
	var out []Channel
	for _, g := range d.session.State.Guilds {
		for _, ch := range g.Channels {
			if ch.Type != discordgo.ChannelTypeGuildText {
				continue
			}
			out = append(out, Channel{ID: ch.ID, Name: ch.Name, GuildID: g.ID})
		}
	}
	return out
}

func (d *Discord) Messages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	msgs, err := d.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch", Err: err}
	}

	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, Message{
			ID:        m.ID,
			Timestamp: m.Timestamp,
			Author:    authorName(m.Author),
			Content:   m.Content,
			Reactions: mapReactions(m.Reactions),
		})
	}
	return out, nil
}

func (d *Discord) Send(ctx context.Context, channelID, content string) error {
	if _, err := d.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return &domain.TransportError{Op: "send", Err: err}
	}
	return nil
}

func (d *Discord) React(ctx context.Context, channelID, messageID, emoji string) error {
	if err := d.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return &domain.TransportError{Op: "react", Err: err}
	}
	return nil
}

func (d *Discord) RemoveReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := d.session.MessageReactionRemove(channelID, messageID, emoji, "@me", discordgo.WithContext(ctx)); err != nil {
		return &domain.TransportError{Op: "remove reaction", Err: err}
	}
	return nil
}

func (d *Discord) Delete(ctx context.Context, channelID, messageID string) error {
	if err := d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return &domain.TransportError{Op: "delete", Err: err}
	}
	return nil
}

func authorName(u *discordgo.User) string {
	if u == nil {
		return "unknown"
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func mapReactions(rs []*discordgo.MessageReactions) []Reaction {
	if len(rs) == 0 {
		return nil
	}
	out := make([]Reaction, 0, len(rs))
	for _, r := range rs {
		if r == nil || r.Emoji == nil {
			continue
		}
		out = append(out, Reaction{
			Emoji: r.Emoji.APIName(),
			Count: r.Count,
			Me:    r.Me,
		})
	}
	return out
}
