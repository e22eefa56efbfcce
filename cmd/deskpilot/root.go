package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ent0n29/deskpilot/internal/config"
	"github.com/ent0n29/deskpilot/internal/logging"
)

// cli holds what PersistentPreRunE prepares for every subcommand.
type cli struct {
	cfg    config.Config
	logger *zap.Logger

	logLevel      string
	logFormat     string
	resolverMode  string
	workspaceDir  string
	memoryBackend string
	memoryPath    string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "deskpilot",
		Short: "Resolve natural-language desktop commands and run them",
		Long: `deskpilot turns an utterance such as "open chrome" or "create a file named
report dot txt" into a desktop action.

A semantic model resolves the command first; when it is unavailable, unsure or
returns garbage, a local intent classifier takes over. The last application used
and a short conversation history are remembered between commands.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.prepare,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.logLevel, "log-level", "", "log level (debug|info|warn|error); overrides LOG_LEVEL")
	flags.StringVar(&c.logFormat, "log-format", "", "log format (json|console); overrides LOG_FORMAT")
	flags.StringVar(&c.resolverMode, "resolver", "", "semantic backend (auto|gemini|anthropic|http|mock|off); overrides RESOLVER_MODE")
	flags.StringVar(&c.workspaceDir, "workspace", "", "directory file commands run in; overrides WORKSPACE_DIR")
	flags.StringVar(&c.memoryBackend, "memory-backend", "", "memory persistence (auto|file|postgres|memory); overrides MEMORY_BACKEND")
	flags.StringVar(&c.memoryPath, "memory-path", "", "memory file for the file backend; overrides MEMORY_PATH")

	root.AddCommand(
		newServeCmd(c),
		newSayCmd(c),
		newReplCmd(c),
		newMemoryCmd(c),
	)
	return root
}

func (c *cli) prepare(*cobra.Command, []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	override(&cfg.LogLevel, c.logLevel)
	override(&cfg.LogFormat, c.logFormat)
	override(&cfg.ResolverMode, c.resolverMode)
	override(&cfg.WorkspaceDir, c.workspaceDir)
	override(&cfg.MemoryBackend, c.memoryBackend)
	override(&cfg.MemoryPath, c.memoryPath)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

func override(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}
