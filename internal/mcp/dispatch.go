package mcp

import (
	"context"
	"fmt"

	"github.com/soyeahso/mcp-discord/internal/domain"
	"github.com/soyeahso/mcp-discord/internal/logging"
	"github.com/soyeahso/mcp-discord/internal/platform"
	"github.com/soyeahso/mcp-discord/internal/reader"
	"github.com/soyeahso/mcp-discord/internal/session"
)

// Dispatcher validates tool calls and routes them to the session layer.
type Dispatcher struct {
	mgr     *session.Manager
	client  platform.Client
	botName string
	log     *logging.Logger
}

// NewDispatcher wires the dispatcher to the session manager and platform
// client. botName, when non-empty, prefixes outbound sends as "[name] content"
// unless the call supplies its own project_name.
func NewDispatcher(mgr *session.Manager, client platform.Client, botName string, log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		mgr:     mgr,
		client:  client,
		botName: botName,
		log:     log.Sub("dispatch"),
	}
}

// Tools returns the advertised tool list.
func (d *Dispatcher) Tools() []Tool {
	return toolList()
}

// CallTool runs one tool invocation. Protocol-level failures (unknown tool,
// invalid params, connect failure) come back as *RPCError; operation-level
// failures (channel not found, transport errors) come back as error-shaped
// tool results.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args map[string]any) (ToolResult, *RPCError) {
	spec, ok := toolSpecs[name]
	if !ok {
		return ToolResult{}, &RPCError{
			Code:    codeMethodNotFound,
			Message: "Method not found",
			Data:    fmt.Sprintf("unknown tool: %s", name),
		}
	}

	// The send path is deliberately optimistic: it handles connection
	// failure itself by queueing, so only the other tools gate on a live
	// session here.
	if name != toolSendMessage {
		if err := d.mgr.EnsureConnected(ctx); err != nil {
			return ToolResult{}, &RPCError{
				Code:    codeInternalError,
				Message: "Internal error",
				Data:    fmt.Sprintf("discord connection failed: %v", err),
			}
		}
	}

	v, err := validateArgs(args, spec.fields)
	if err != nil {
		return ToolResult{}, &RPCError{
			Code:    codeInvalidParams,
			Message: "Invalid params",
			Data:    err.Error(),
		}
	}

	d.log.Debug().Str("tool", name).Msg("dispatching tool call")

	switch name {
	case toolReadRecentMessages:
		return d.readRecent(ctx, v), nil
	case toolSendMessage:
		return d.sendMessage(ctx, v), nil
	case toolAddReaction:
		return d.addReaction(ctx, v), nil
	case toolRemoveReaction:
		return d.removeReaction(ctx, v), nil
	case toolDeleteMessage:
		return d.deleteMessage(ctx, v), nil
	default:
		return ToolResult{}, &RPCError{Code: codeInternalError, Message: "Internal error", Data: "unroutable tool: " + name}
	}
}

func (d *Dispatcher) readRecent(ctx context.Context, v map[string]any) ToolResult {
	ch, err := d.mgr.Resolve(argString(v, "channel_name"))
	if err != nil {
		return errorResult(err.Error())
	}

	text, err := reader.ReadRecent(ctx, d.client, ch.ID, reader.Options{
		Limit:          argInt(v, "limit"),
		UnreadOnly:     argBool(v, "unread_only"),
		ReactionFilter: argString(v, "reaction_filter"),
	})
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(text)
}

// sendMessage never surfaces a failure: any error along the
// connect/resolve/send path queues the message for replay on reconnect and
// reports success with a queued notice.
func (d *Dispatcher) sendMessage(ctx context.Context, v map[string]any) ToolResult {
	channel := argString(v, "channel_name")
	content := argString(v, "content")

	prefix := argString(v, "project_name")
	if prefix == "" {
		prefix = d.botName
	}
	if prefix != "" {
		content = fmt.Sprintf("[%s] %s", prefix, content)
	}

	err := d.mgr.EnsureConnected(ctx)
	if err == nil {
		err = d.mgr.Deliver(ctx, channel, content)
	}
	if err == nil {
		return textResult(fmt.Sprintf("Message sent to #%s.", channel))
	}

	d.mgr.Enqueue(channel, content)

	suggestion := "It will be delivered automatically once the connection recovers."
	if domain.LooksLikeAuthFailure(err) {
		suggestion = "Check that DISCORD_TOKEN is valid; delivery is retried after the next successful login."
	}
	return textResult(fmt.Sprintf(
		"Discord is currently unreachable (%v). Message to #%s queued for later delivery. %s",
		err, channel, suggestion))
}

func (d *Dispatcher) addReaction(ctx context.Context, v map[string]any) ToolResult {
	channel := argString(v, "channel_name")
	messageID := argString(v, "message_id")
	emoji := argString(v, "emoji")

	ch, err := d.mgr.Resolve(channel)
	if err != nil {
		return errorResult(err.Error())
	}
	if err := d.client.React(ctx, ch.ID, messageID, emoji); err != nil {
		return errorResult(err.Error())
	}
	return textResult(fmt.Sprintf("Added %s to message %s in #%s.", emoji, messageID, channel))
}

func (d *Dispatcher) removeReaction(ctx context.Context, v map[string]any) ToolResult {
	channel := argString(v, "channel_name")
	messageID := argString(v, "message_id")
	emoji := argString(v, "emoji")

	ch, err := d.mgr.Resolve(channel)
	if err != nil {
		return errorResult(err.Error())
	}
	if err := d.client.RemoveReaction(ctx, ch.ID, messageID, emoji); err != nil {
		return errorResult(err.Error())
	}
	return textResult(fmt.Sprintf("Removed %s from message %s in #%s.", emoji, messageID, channel))
}

func (d *Dispatcher) deleteMessage(ctx context.Context, v map[string]any) ToolResult {
	channel := argString(v, "channel_name")
	messageID := argString(v, "message_id")

	ch, err := d.mgr.Resolve(channel)
	if err != nil {
		return errorResult(err.Error())
	}
	if err := d.client.Delete(ctx, ch.ID, messageID); err != nil {
		return errorResult(err.Error())
	}
	return textResult(fmt.Sprintf("Deleted message %s in #%s.", messageID, channel))
}
