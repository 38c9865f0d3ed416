package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".mcp-discord"

// Paths holds resolved filesystem paths for mcp-discord data.
type Paths struct {
	Base   string // ~/.mcp-discord
	Config string // ~/.mcp-discord/config.yaml
	Logs   string // ~/.mcp-discord/logs
}

// ResolvePaths computes the standard paths from the home directory.
// If MCP_DISCORD_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("MCP_DISCORD_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// DefaultLogFile is the debug log destination under the logs directory.
func (p Paths) DefaultLogFile() string {
	return filepath.Join(p.Logs, "mcp-discord.log")
}
