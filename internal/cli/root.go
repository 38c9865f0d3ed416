// Package cli wires configuration, logging, the Discord client, and the MCP
// stdio server into the mcp-discord command.
package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/soyeahso/mcp-discord/internal/config"
	"github.com/soyeahso/mcp-discord/internal/logging"
	"github.com/soyeahso/mcp-discord/internal/mcp"
	"github.com/soyeahso/mcp-discord/internal/platform"
	"github.com/soyeahso/mcp-discord/internal/session"
	"github.com/spf13/cobra"
)

// startupConnectDelay is how long after the MCP client signals readiness the
// one-shot background connect fires. Connecting before the handshake settles
// risks tripping the host's startup timeout.
const startupConnectDelay = time.Second

var (
	cfgFile  string
	logLevel string
	logFile  string
	botName  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-discord",
		Short: "MCP server exposing Discord read/send/react/delete tools",
		Long: "mcp-discord is a stdio MCP server that reads, sends, reacts to, and deletes " +
			"Discord messages. The Discord session is established lazily and messages sent " +
			"while offline are queued and replayed on reconnect.",
		Args:          cobra.NoArgs,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.mcp-discord/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "debug log file (default ~/.mcp-discord/logs/mcp-discord.log)")
	cmd.Flags().StringVar(&botName, "bot-name", "", "display name prefixed to outbound messages as [name]")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}
	if cfgFile == "" {
		cfgFile = paths.Config
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFile != "" {
		cfg.Logging.File = logFile
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = paths.DefaultLogFile()
	}
	if botName != "" {
		cfg.BotName = botName
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewWithFile(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return err
	}

	client, err := platform.NewDiscord(cfg.Token, log)
	if err != nil {
		return err
	}

	mgr := session.NewManager(client, log)
	client.OnEvent(mgr.HandleEvent)

	dispatcher := mcp.NewDispatcher(mgr, client, cfg.BotName, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(dispatcher, log,
		mcp.WithOnInitialized(func() {
			// One best-effort connect after the transport is up; failure is
			// logged and swallowed, the next tool call retries on demand.
			go func() {
				time.Sleep(startupConnectDelay)
				if err := mgr.EnsureConnected(ctx); err != nil {
					log.Warn().Err(err).Msg("startup connect failed, will retry on first tool call")
				}
			}()
		}),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx)
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info().Msg("termination signal received")
		err = nil
	}

	// Ordered shutdown: platform session first, then exit. The transport
	// loop ends on its own when stdin closes.
	if cerr := client.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("error closing discord session")
	}
	return err
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
