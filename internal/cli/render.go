package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/selgraph/pkg/cache"
	"github.com/matzehuels/selgraph/pkg/render/nodelink"
	"github.com/matzehuels/selgraph/pkg/selection"
	"github.com/matzehuels/selgraph/pkg/session"
)

// renderOpts holds options for the render command.
type renderOpts struct {
	output    string
	format    string
	selected  []string
	sessionID string
	detailed  bool
	rankDir   string
	noCache   bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <graph>",
		Short: "Render a graph with its selection styled",
		Long: `Render a graph through Graphviz. Selected nodes, their frontier and the edges
between them are drawn in their selection style.

The selection comes from --select or a stored --session.`,
		Example: `  selgraph render ir.json --select add.3,mul.7 -o ir.svg
  selgraph render ir.yaml --session 0f8e... --format png -o ir.png
  selgraph render ir.json --format dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <graph>.<format>, - for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "svg", "output format: svg, png, dot")
	cmd.Flags().StringSliceVar(&opts.selected, "select", nil, "comma-separated node IDs to select")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "take the selection from this session")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include node metadata in labels")
	cmd.Flags().StringVar(&opts.rankDir, "rankdir", "TB", "Graphviz rank direction (TB, LR, BT, RL)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, w io.Writer, path string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	format, err := nodelink.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	g, hash, err := readGraph(path)
	if err != nil {
		return err
	}

	t := selection.New(g)
	if opts.sessionID != "" {
		store, err := c.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		sess, err := loadSession(ctx, store, opts.sessionID)
		if err != nil {
			return err
		}
		if _, err := session.RestoreChecked(t, sess, hash); err != nil {
			logger.Warn("Session was captured on a different graph", "session", sess.ID)
			session.Restore(t, sess)
		}
	}
	if len(opts.selected) > 0 {
		t.SelectOnlyNodes(opts.selected)
	}

	dot := nodelink.ToDOT(g, t, nodelink.Options{Detailed: opts.detailed, RankDir: opts.rankDir})

	data, cached, err := c.renderCached(ctx, dot, format, opts.noCache)
	if err != nil {
		return err
	}
	logger.Debug("Rendered", "format", format, "bytes", len(data), "cached", cached)

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(format)
	}
	if out == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	prog.done(fmt.Sprintf("Rendered %d nodes", g.NodeCount()))
	printSuccess(w, "Rendered %s", format)
	printFile(w, out)
	return nil
}

// renderCached renders dot through the artifact cache. DOT output needs no
// Graphviz run and is never cached.
func (c *CLI) renderCached(ctx context.Context, dot string, format nodelink.Format, noCache bool) ([]byte, bool, error) {
	if format == nodelink.FormatDOT {
		return []byte(dot), false, nil
	}

	ch, err := c.newCache(noCache)
	if err != nil {
		return nil, false, err
	}
	defer ch.Close()

	key := cache.ArtifactKey(dot, string(format))
	if data, ok, _ := ch.Get(ctx, key); ok {
		return data, true, nil
	}
	data, err := nodelink.Render(ctx, dot, format)
	if err != nil {
		return nil, false, err
	}
	if err := ch.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		loggerFromContext(ctx).Warn("Cache write failed", "err", err)
	}
	return data, false, nil
}
