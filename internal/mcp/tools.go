package mcp

import "github.com/soyeahso/mcp-discord/internal/reader"

// Tool names.
const (
	toolReadRecentMessages = "read_recent_messages"
	toolSendMessage        = "send_message"
	toolAddReaction        = "add_reaction"
	toolRemoveReaction     = "remove_reaction"
	toolDeleteMessage      = "delete_message"
)

const defaultReadLimit = 10

// toolSpec pairs a tool's advertised schema with the field specs the
// dispatcher validates against.
type toolSpec struct {
	tool   Tool
	fields []fieldSpec
}

var toolSpecs = map[string]toolSpec{
	toolReadRecentMessages: {
		tool: Tool{
			Name:        toolReadRecentMessages,
			Description: "Read recent messages from a Discord channel, oldest first. Optionally keep only unread messages or messages carrying a specific reaction.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"channel_name":    {Type: "string", Description: "Channel name to read from (without the # prefix)"},
					"limit":           {Type: "integer", Description: "Maximum number of messages to return (minimum 1)", Default: defaultReadLimit},
					"unread_only":     {Type: "boolean", Description: "Only return messages the bot has not marked read with " + reader.ReadMark, Default: false},
					"reaction_filter": {Type: "string", Description: "Only return messages carrying this emoji reaction"},
				},
				Required: []string{"channel_name"},
			},
		},
		fields: []fieldSpec{
			{name: "channel_name", typ: "string", required: true},
			{name: "limit", typ: "integer", positive: true, def: defaultReadLimit},
			{name: "unread_only", typ: "boolean", def: false},
			{name: "reaction_filter", typ: "string"},
		},
	},
	toolSendMessage: {
		tool: Tool{
			Name:        toolSendMessage,
			Description: "Send a message to a Discord channel. If Discord is unreachable the message is queued and delivered automatically after reconnect.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"channel_name": {Type: "string", Description: "Channel name to send to (without the # prefix)"},
					"content":      {Type: "string", Description: "Message text"},
					"project_name": {Type: "string", Description: "Optional name prefixed to the message as [name]"},
				},
				Required: []string{"channel_name", "content"},
			},
		},
		fields: []fieldSpec{
			{name: "channel_name", typ: "string", required: true},
			{name: "content", typ: "string", required: true},
			{name: "project_name", typ: "string"},
		},
	},
	toolAddReaction: {
		tool: Tool{
			Name:        toolAddReaction,
			Description: "Add an emoji reaction to a message. Defaults to " + reader.ReadMark + ", marking the message as read.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"channel_name": {Type: "string", Description: "Channel the message lives in"},
					"message_id":   {Type: "string", Description: "Message ID to react to"},
					"emoji":        {Type: "string", Description: "Emoji to add", Default: reader.ReadMark},
				},
				Required: []string{"channel_name", "message_id"},
			},
		},
		fields: []fieldSpec{
			{name: "channel_name", typ: "string", required: true},
			{name: "message_id", typ: "string", required: true},
			{name: "emoji", typ: "string", def: reader.ReadMark},
		},
	},
	toolRemoveReaction: {
		tool: Tool{
			Name:        toolRemoveReaction,
			Description: "Remove the bot's own emoji reaction from a message. Defaults to " + reader.ReadMark + ", marking the message as unread.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"channel_name": {Type: "string", Description: "Channel the message lives in"},
					"message_id":   {Type: "string", Description: "Message ID to remove the reaction from"},
					"emoji":        {Type: "string", Description: "Emoji to remove", Default: reader.ReadMark},
				},
				Required: []string{"channel_name", "message_id"},
			},
		},
		fields: []fieldSpec{
			{name: "channel_name", typ: "string", required: true},
			{name: "message_id", typ: "string", required: true},
			{name: "emoji", typ: "string", def: reader.ReadMark},
		},
	},
	toolDeleteMessage: {
		tool: Tool{
			Name:        toolDeleteMessage,
			Description: "Delete a message from a Discord channel.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"channel_name": {Type: "string", Description: "Channel the message lives in"},
					"message_id":   {Type: "string", Description: "Message ID to delete"},
				},
				Required: []string{"channel_name", "message_id"},
			},
		},
		fields: []fieldSpec{
			{name: "channel_name", typ: "string", required: true},
			{name: "message_id", typ: "string", required: true},
		},
	},
}

// toolOrder fixes the tools/list ordering.
var toolOrder = []string{
	toolReadRecentMessages,
	toolSendMessage,
	toolAddReaction,
	toolRemoveReaction,
	toolDeleteMessage,
}

func toolList() []Tool {
	out := make([]Tool, 0, len(toolOrder))
	for _, name := range toolOrder {
		out = append(out, toolSpecs[name].tool)
	}
	return out
}
