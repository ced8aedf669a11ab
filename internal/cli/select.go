package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/selgraph/pkg/cache"
	"github.com/matzehuels/selgraph/pkg/dag"
	selerrors "github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/graph"
	"github.com/matzehuels/selgraph/pkg/selection"
	"github.com/matzehuels/selgraph/pkg/session"
)

// selectOpts holds options for the select command.
type selectOpts struct {
	add       []string
	remove    []string
	clear     bool
	sessionID string
	save      bool
	jsonOut   bool
	states    bool
}

// selectCommand creates the select command.
func (c *CLI) selectCommand() *cobra.Command {
	var opts selectOpts

	cmd := &cobra.Command{
		Use:   "select <graph> [node-id...]",
		Short: "Apply selection updates and print what changed",
		Long: `Apply selection updates to a graph and print the changeset of each update.

Node IDs given as arguments replace the whole selection in one step. --add and
--remove then select or unselect single nodes, in the order given. With
--session the stored selection of that session is restored first and the
result is saved back.`,
		Example: `  # Select two nodes and show what changed
  selgraph select ir.json add.3 mul.7

  # Continue a stored session
  selgraph select ir.json --session 0f8e... --add load.2 --remove add.3

  # Start a new stored session
  selgraph select ir.json add.3 --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSelect(cmd.Context(), cmd.OutOrStdout(), args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.add, "add", nil, "select a node (repeatable)")
	cmd.Flags().StringArrayVar(&opts.remove, "remove", nil, "unselect a node (repeatable)")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "clear the selection before other updates")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "restore and save this session")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the result as a new session")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print changesets as JSON lines")
	cmd.Flags().BoolVar(&opts.states, "states", false, "print every non-None element after the updates")

	return cmd
}

// step is one applied selection update.
type step struct {
	Op      string             `json:"op"`
	Args    []string           `json:"args,omitempty"`
	Changes graph.ChangeSetDoc `json:"changes"`

	cs selection.ChangeSet
}

func (c *CLI) runSelect(ctx context.Context, w io.Writer, path string, ids []string, opts selectOpts) error {
	logger := loggerFromContext(ctx)

	g, hash, err := readGraph(path)
	if err != nil {
		return err
	}
	for _, id := range append(append(append([]string{}, ids...), opts.add...), opts.remove...) {
		if err := selerrors.ValidateElementID(id); err != nil {
			return err
		}
	}
	logger.Debug("Loaded graph", "path", path, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	t := selection.New(g)

	var (
		store session.Store
		sess  *session.Session
	)
	if opts.sessionID != "" || opts.save {
		store, err = c.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	if opts.sessionID != "" {
		sess, err = loadSession(ctx, store, opts.sessionID)
		if err != nil {
			return err
		}
		restoreSession(ctx, t, sess, hash)
		logger.Debug("Restored session", "session", sess.ID, "selected", len(sess.Selected))
	}

	var steps []step
	apply := func(op string, args []string, cs selection.ChangeSet) {
		steps = append(steps, step{Op: op, Args: args, Changes: graph.FromChangeSet(cs), cs: cs})
	}
	if opts.clear {
		apply("clear", nil, t.SelectOnlyNodes(nil))
	}
	if len(ids) > 0 {
		apply(selection.OpSelectOnlyNodes, ids, t.SelectOnlyNodes(ids))
	}
	for _, id := range opts.add {
		apply("add", []string{id}, t.SelectNode(id, true))
	}
	for _, id := range opts.remove {
		apply("remove", []string{id}, t.SelectNode(id, false))
	}

	if store != nil {
		ttl := c.cfg.Session.TTL.Duration
		if sess == nil {
			sess = session.New(hash, ttl)
		}
		sess.Graph = hash
		sess.Capture(t, ttl)
		if err := store.Set(ctx, sess); err != nil {
			return err
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(w)
		for _, s := range steps {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		if opts.states {
			return enc.Encode(graph.Snapshot(t))
		}
		return nil
	}

	for _, s := range steps {
		printInfo(w, "%s %s", s.Op, strings.Join(s.Args, " "))
		printChangeSet(w, s.cs)
	}
	if len(steps) == 0 {
		printInfo(w, "no updates")
	}
	if opts.states {
		printStates(w, t)
	}
	printKeyValue(w, "selected", fmt.Sprintf("%v", t.Selected()))
	if sess != nil {
		printKeyValue(w, "session", sess.ID)
	}
	return nil
}

// printStates prints every node and edge whose state is not None.
func printStates(w io.Writer, t *selection.Tracker) {
	topo := t.Topology()
	for _, id := range topo.NodeIDs() {
		if s := t.NodeState(id); s != selection.None {
			fmt.Fprintf(w, "  %s %s %s\n", StyleDim.Render("node"), id, stateStyle(s).Render(s.String()))
		}
	}
	for _, id := range topo.EdgeIDs() {
		if s := t.EdgeState(id); s != selection.None {
			fmt.Fprintf(w, "  %s %s %s\n", StyleDim.Render("edge"), id, stateStyle(s).Render(s.String()))
		}
	}
}

// readGraph loads a graph document and returns it with the content hash
// sessions use to recognise it.
func readGraph(path string) (*dag.DAG, string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", selerrors.Wrap(selerrors.ErrCodeFileNotFound, err, "graph file %s", path)
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	g, err := graph.ReadGraph(bytes.NewReader(data), graph.FormatFromPath(path))
	if err != nil {
		return nil, "", err
	}
	return g, cache.Hash(data), nil
}

func loadSession(ctx context.Context, store session.Store, id string) (*session.Session, error) {
	if err := selerrors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	sess, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, selerrors.New(selerrors.ErrCodeSessionNotFound, "session %s not found or expired", id)
	}
	return sess, nil
}

// restoreSession applies a stored selection to t. A session captured on a
// different graph is still applied; ids the graph lacks stay inert.
func restoreSession(ctx context.Context, t *selection.Tracker, sess *session.Session, graphHash string) {
	if _, err := session.RestoreChecked(t, sess, graphHash); err != nil {
		loggerFromContext(ctx).Warn("Session was captured on a different graph", "session", sess.ID)
		session.Restore(t, sess)
	}
}
