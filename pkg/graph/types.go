package graph

import (
	"fmt"

	"github.com/matzehuels/selgraph/pkg/dag"
	"github.com/matzehuels/selgraph/pkg/errors"
)

// =============================================================================
// Graph - Node-Link Serialization
// =============================================================================

// Graph is the canonical serialization format for displayed graphs.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node is a serialized vertex.
type Node struct {
	ID    string         `json:"id" yaml:"id"`
	Label string         `json:"label,omitempty" yaml:"label,omitempty"` // Display label (defaults to ID)
	Meta  map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Edge is a serialized directed edge.
type Edge struct {
	ID   string         `json:"id,omitempty" yaml:"id,omitempty"` // Generated as "from->to" when empty
	From string         `json:"from" yaml:"from"`
	To   string         `json:"to" yaml:"to"`
	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// =============================================================================
// DAG ↔ Graph Conversion
// =============================================================================

// FromDAG converts a DAG to its serialization format.
// Nodes and edges keep the DAG's insertion order.
func FromDAG(g *dag.DAG) Graph {
	nodes := g.Nodes()
	edges := g.Edges()
	out := Graph{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = Node{ID: n.ID, Label: n.Label, Meta: copyMeta(n.Meta)}
	}
	for i, e := range edges {
		out.Edges[i] = Edge{ID: e.ID, From: e.From, To: e.To, Meta: copyMeta(e.Meta)}
	}
	return out
}

// ToDAG converts a Graph to a DAG.
// Structural problems (duplicate IDs, dangling edges) are reported as
// INVALID_GRAPH errors wrapping the dag sentinel error.
func ToDAG(gj Graph) (*dag.DAG, error) {
	d := dag.New(nil)

	for _, nj := range gj.Nodes {
		n := dag.Node{ID: nj.ID, Label: nj.Label, Meta: copyMeta(nj.Meta)}
		if err := d.AddNode(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "add node %q", nj.ID)
		}
	}

	for _, ej := range gj.Edges {
		e := dag.Edge{ID: ej.ID, From: ej.From, To: ej.To, Meta: copyMeta(ej.Meta)}
		if _, err := d.AddEdge(e); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "add edge %s", edgeName(ej))
		}
	}

	return d, nil
}

func edgeName(e Edge) string {
	if e.ID != "" {
		return fmt.Sprintf("%q", e.ID)
	}
	return fmt.Sprintf("%s→%s", e.From, e.To)
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
// Empty maps become nil so they are omitted on output.
func copyMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
