// Package reader implements the read path: overfetch recent messages, apply
// reaction/unread filters, trim to the requested limit, and render one line
// per message in chronological order.
package reader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/mcp-discord/internal/platform"
)

// ReadMark is the bot's own reaction marking a message as read.
const ReadMark = "✅"

const (
	// maxFetch caps an unfiltered fetch.
	maxFetch = 50
	// maxOverfetch caps the 3x overfetch used when filters are active.
	maxOverfetch = 100
)

// emptySentinel is rendered instead of an empty string when nothing survives
// filtering.
const emptySentinel = "no messages found"

// Fetcher is the slice of platform.Client the reader needs.
type Fetcher interface {
	Messages(ctx context.Context, channelID string, limit int) ([]platform.Message, error)
}

// Options controls one read operation.
type Options struct {
	Limit          int
	UnreadOnly     bool
	ReactionFilter string
}

// fetchCount computes how many raw messages to request. With a filter active
// the fetch is tripled to leave headroom for post-fetch filtering. This is a
// heuristic: if fewer than Limit messages survive, fewer are returned and no
// further fetch rounds are attempted.
func fetchCount(opts Options) int {
	if opts.UnreadOnly || opts.ReactionFilter != "" {
		return min(opts.Limit*3, maxOverfetch)
	}
	return min(opts.Limit, maxFetch)
}

// ReadRecent fetches, filters, trims, and renders recent messages from a
// channel. The platform delivers newest-first; output is oldest-first.
func ReadRecent(ctx context.Context, f Fetcher, channelID string, opts Options) (string, error) {
	// A non-positive limit can never yield messages; skip the fetch entirely
	// rather than pass a nonsense limit to the platform.
	if opts.Limit < 1 {
		return emptySentinel, nil
	}

	msgs, err := f.Messages(ctx, channelID, fetchCount(opts))
	if err != nil {
		return "", err
	}

	if opts.ReactionFilter != "" {
		kept := msgs[:0]
		for _, m := range msgs {
			if m.HasReaction(opts.ReactionFilter) {
				kept = append(kept, m)
			}
		}
		msgs = kept
	}

	if opts.UnreadOnly {
		kept := msgs[:0]
		for _, m := range msgs {
			if !m.HasOwnReaction(ReadMark) {
				kept = append(kept, m)
			}
		}
		msgs = kept
	}

	if len(msgs) > opts.Limit {
		msgs = msgs[:opts.Limit]
	}

	if len(msgs) == 0 {
		return emptySentinel, nil
	}

	lines := make([]string, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		lines = append(lines, formatLine(msgs[i]))
	}
	return strings.Join(lines, "\n"), nil
}

func formatLine(m platform.Message) string {
	marker := "NEW"
	if m.HasOwnReaction(ReadMark) {
		marker = "READ"
	}
	return fmt.Sprintf("ID:%s [%s] %s %s: %s",
		m.ID, marker, m.Timestamp.UTC().Format(time.RFC3339), m.Author, m.Content)
}
