package selection

import (
	"slices"
	"time"

	"github.com/matzehuels/selgraph/pkg/observability"
)

// Topology is the read-only graph a Tracker derives state from.
// It must not change for the lifetime of the Tracker.
type Topology interface {
	// NodeIDs returns every node ID in a stable iteration order.
	NodeIDs() []string
	// EdgeIDs returns every edge ID in a stable iteration order.
	EdgeIDs() []string
	// Endpoints returns the node IDs an edge connects; ok is false for an
	// unknown edge.
	Endpoints(edgeID string) (source, target string, ok bool)
	// Neighbors returns the IDs of nodes adjacent to nodeID.
	Neighbors(nodeID string) []string
}

// Operation names reported to [observability.SelectionHooks].
const (
	OpSelectNode      = "select_node"
	OpSelectOnlyNodes = "select_only_nodes"
)

// Tracker keeps the set of selected nodes of one graph and derives the
// display state of every node and edge from it.
//
// The zero value is not usable - use New.
type Tracker struct {
	topo     Topology
	selected map[string]struct{}
	hooks    observability.SelectionHooks
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithHooks reports mutations to h instead of the globally registered
// selection hooks.
func WithHooks(h observability.SelectionHooks) Option {
	return func(t *Tracker) { t.hooks = h }
}

// New returns a Tracker over topo with nothing selected.
func New(topo Topology, opts ...Option) *Tracker {
	t := &Tracker{
		topo:     topo,
		selected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Topology returns the graph the tracker was created with.
func (t *Tracker) Topology() Topology { return t.topo }

// Selected returns the selected node IDs in sorted order.
func (t *Tracker) Selected() []string {
	ids := make([]string, 0, len(t.selected))
	for id := range t.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NodeState returns the state of a node.
func (t *Tracker) NodeState(id string) State {
	if t.has(id) {
		return Selected
	}
	if slices.ContainsFunc(t.topo.Neighbors(id), t.has) {
		return Frontier
	}
	return None
}

// EdgeState returns the state of an edge. An unknown edge is None.
func (t *Tracker) EdgeState(id string) State {
	source, target, ok := t.topo.Endpoints(id)
	if !ok {
		return None
	}
	s, d := t.NodeState(source), t.NodeState(target)
	switch {
	case s == Selected && d == Selected:
		return Selected
	case s == Selected || d == Selected:
		return Frontier
	case s == Frontier && d == Frontier:
		return Frontier
	default:
		return None
	}
}

// IsNodeSelected reports whether the node is selected.
func (t *Tracker) IsNodeSelected(id string) bool { return t.NodeState(id) == Selected }

// IsNodeOnFrontier reports whether the node is on the frontier.
func (t *Tracker) IsNodeOnFrontier(id string) bool { return t.NodeState(id) == Frontier }

// IsEdgeSelected reports whether the edge is selected.
func (t *Tracker) IsEdgeSelected(id string) bool { return t.EdgeState(id) == Selected }

// IsEdgeOnFrontier reports whether the edge is on the frontier.
func (t *Tracker) IsEdgeOnFrontier(id string) bool { return t.EdgeState(id) == Frontier }

// SelectNode selects (value true) or unselects (value false) one node. The
// selection of other nodes is untouched, though their derived state may
// change.
func (t *Tracker) SelectNode(id string, value bool) ChangeSet {
	return t.computeChanges(OpSelectNode, func() {
		if value {
			t.selected[id] = struct{}{}
		} else {
			delete(t.selected, id)
		}
	})
}

// SelectOnlyNodes replaces the selection with ids, duplicates collapsed, as
// a single mutation.
func (t *Tracker) SelectOnlyNodes(ids []string) ChangeSet {
	return t.computeChanges(OpSelectOnlyNodes, func() {
		next := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			next[id] = struct{}{}
		}
		t.selected = next
	})
}

func (t *Tracker) has(id string) bool {
	_, ok := t.selected[id]
	return ok
}

// computeChanges runs mutate and diffs the state of every node and edge
// before and after it.
func (t *Tracker) computeChanges(op string, mutate func()) ChangeSet {
	start := time.Now()

	nodeIDs := t.topo.NodeIDs()
	edgeIDs := t.topo.EdgeIDs()

	// TODO: only the neighbourhood of the (un)selected nodes can change;
	// restrict the walk to it once graphs get large enough to notice.
	oldNodes := make([]State, len(nodeIDs))
	for i, id := range nodeIDs {
		oldNodes[i] = t.NodeState(id)
	}
	oldEdges := make([]State, len(edgeIDs))
	for i, id := range edgeIDs {
		oldEdges[i] = t.EdgeState(id)
	}

	mutate()

	var cs ChangeSet
	for i, id := range nodeIDs {
		if s := t.NodeState(id); s != oldNodes[i] {
			cs.Nodes = append(cs.Nodes, Change{ID: id, From: oldNodes[i], To: s})
		}
	}
	for i, id := range edgeIDs {
		if s := t.EdgeState(id); s != oldEdges[i] {
			cs.Edges = append(cs.Edges, Change{ID: id, From: oldEdges[i], To: s})
		}
	}

	t.hooksOrDefault().OnMutation(op, len(cs.Nodes), len(cs.Edges), time.Since(start))
	return cs
}

func (t *Tracker) hooksOrDefault() observability.SelectionHooks {
	if t.hooks != nil {
		return t.hooks
	}
	return observability.Selection()
}
