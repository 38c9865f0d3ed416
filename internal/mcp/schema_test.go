package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArgsMissingRequired(t *testing.T) {
	spec := toolSpecs[toolReadRecentMessages]

	_, err := validateArgs(map[string]any{}, spec.fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_name is required")
}

func TestValidateArgsDefaults(t *testing.T) {
	spec := toolSpecs[toolReadRecentMessages]

	v, err := validateArgs(map[string]any{"channel_name": "general"}, spec.fields)
	require.NoError(t, err)
	assert.Equal(t, "general", v["channel_name"])
	assert.Equal(t, 10, v["limit"])
	assert.Equal(t, false, v["unread_only"])
	_, present := v["reaction_filter"]
	assert.False(t, present, "optional field without default stays absent")
}

func TestValidateArgsEmojiDefault(t *testing.T) {
	spec := toolSpecs[toolAddReaction]

	v, err := validateArgs(map[string]any{
		"channel_name": "general",
		"message_id":   "123",
	}, spec.fields)
	require.NoError(t, err)
	assert.Equal(t, "✅", v["emoji"])
}

func TestValidateArgsRejectsNonPositiveLimit(t *testing.T) {
	spec := toolSpecs[toolReadRecentMessages]

	for _, limit := range []float64{0, -1} {
		_, err := validateArgs(map[string]any{
			"channel_name": "general",
			"limit":        limit,
		}, spec.fields)
		require.Error(t, err, "limit %v", limit)
		assert.Contains(t, err.Error(), "limit must be a positive integer")
	}
}

func TestValidateArgsCollectsAllViolations(t *testing.T) {
	spec := toolSpecs[toolReadRecentMessages]

	_, err := validateArgs(map[string]any{
		"limit":       "ten",
		"unread_only": "yes",
	}, spec.fields)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "channel_name is required")
	assert.Contains(t, msg, "limit must be an integer")
	assert.Contains(t, msg, "unread_only must be a boolean")
}

func TestValidateArgsJSONNumbers(t *testing.T) {
	spec := toolSpecs[toolReadRecentMessages]

	// JSON decoding yields float64 for numbers.
	v, err := validateArgs(map[string]any{
		"channel_name": "general",
		"limit":        float64(25),
	}, spec.fields)
	require.NoError(t, err)
	assert.Equal(t, 25, v["limit"])

	_, err = validateArgs(map[string]any{
		"channel_name": "general",
		"limit":        2.5,
	}, spec.fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit must be an integer")
}

func TestValidateArgsEmptyRequiredString(t *testing.T) {
	spec := toolSpecs[toolSendMessage]

	_, err := validateArgs(map[string]any{
		"channel_name": "",
		"content":      "hi",
	}, spec.fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_name must not be empty")
}

func TestValidateArgsNullTreatedAsAbsent(t *testing.T) {
	spec := toolSpecs[toolAddReaction]

	v, err := validateArgs(map[string]any{
		"channel_name": "general",
		"message_id":   "123",
		"emoji":        nil,
	}, spec.fields)
	require.NoError(t, err)
	assert.Equal(t, "✅", v["emoji"])
}
