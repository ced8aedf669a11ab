package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/selgraph/internal/server"
	selerrors "github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/observability/prom"
	"github.com/matzehuels/selgraph/pkg/render/nodelink"
)

// serveOpts holds flag overrides for the serve command.
type serveOpts struct {
	addr    string
	backend string
	url     string
	watch   bool
	noCache bool
	rankDir string
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [graph]",
		Short: "Serve selection sessions over HTTP",
		Long: `Serve a graph over HTTP. Clients create sessions, update their selection and
receive changesets in the response and on a websocket stream.

Flags override the [server] and [session] sections of the config file.`,
		Example: `  selgraph serve ir.json --addr :9000 --watch
  selgraph serve ir.json --backend redis --url redis://localhost:6379/0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "session backend: memory, file, redis, mongo")
	cmd.Flags().StringVar(&opts.url, "url", "", "redis or mongo connection URL")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload the graph when the file changes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the SVG cache")
	cmd.Flags().StringVar(&opts.rankDir, "rankdir", "TB", "Graphviz rank direction")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, args []string, opts serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg := c.cfg
	if len(args) == 1 {
		cfg.Server.Graph = args[0]
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.backend != "" {
		cfg.Session.Backend = opts.backend
	}
	if opts.url != "" {
		cfg.Session.URL = opts.url
	}
	if cmd.Flags().Changed("watch") {
		cfg.Server.Watch = opts.watch
	}
	if cfg.Server.Graph == "" {
		return selerrors.New(selerrors.ErrCodeInvalidInput, "no graph given: pass a path or set server.graph in the config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	prom.New(nil).Register()

	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ch, err := c.newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	srv, err := server.New(server.Options{
		GraphPath: cfg.Server.Graph,
		Store:     store,
		Cache:     ch,
		TTL:       cfg.Session.TTL.Duration,
		Logger:    logger,
		Render:    nodelink.Options{RankDir: opts.rankDir},
	})
	if err != nil {
		return err
	}
	if cfg.Server.Watch {
		if err := srv.Watch(ctx); err != nil {
			return err
		}
	}

	logger.Info("Serving", "graph", cfg.Server.Graph, "sessions", cfg.Session.Backend, "watch", cfg.Server.Watch)
	err = srv.ListenAndServe(ctx, cfg.Server.Addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		logger.Info("Server stopped")
	}
	return err
}
