// Package config resolves the bot credential and display-name from an
// optional YAML file, environment variables, and CLI flags.
package config

import "errors"

// Config is the full configuration for mcp-discord.
type Config struct {
	// Token is the Discord bot token. Required.
	Token string `yaml:"token,omitempty"`

	// BotName, when set, prefixes outbound sends as "[BotName] content".
	BotName string `yaml:"botName,omitempty"`

	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File  string `yaml:"file,omitempty"`  // debug log file; empty disables file logging
}

// ErrMissingToken is returned when no Discord token could be resolved from
// any source. Startup is fatal without one.
var ErrMissingToken = errors.New("discord token not configured (set DISCORD_TOKEN or token in config.yaml)")

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}
