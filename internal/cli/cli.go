// Package cli implements the selgraph command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/selgraph/internal/config"
	"github.com/matzehuels/selgraph/pkg/buildinfo"
	"github.com/matzehuels/selgraph/pkg/cache"
	"github.com/matzehuels/selgraph/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "selgraph",
		Short:        "Selgraph tracks node selections on graphs",
		Long:         `Selgraph tracks which nodes of a graph are selected, which nodes and edges border the selection, and reports exactly what changed after every selection update.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/selgraph/config.toml)")

	// Register all subcommands
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Backends
// =============================================================================

// openStore opens the configured session store.
func (c *CLI) openStore(ctx context.Context) (session.Store, error) {
	return session.Open(ctx, c.cfg.SessionConfig())
}

// newCache returns the rendered-artifact cache, or a NullCache when caching
// is disabled or no cache directory can be determined.
func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache || !c.cfg.Cache.Enabled {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cfg.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
