package graph

import (
	"encoding/json"

	"github.com/matzehuels/selgraph/pkg/selection"
)

// =============================================================================
// Changeset Serialization
// =============================================================================

// ChangeSetDoc is the wire form of a selection changeset. Both lists are
// always present, possibly empty, so clients can iterate without nil checks.
type ChangeSetDoc struct {
	Nodes []selection.Change `json:"nodes"`
	Edges []selection.Change `json:"edges"`
}

// FromChangeSet converts a changeset to its wire form.
func FromChangeSet(cs selection.ChangeSet) ChangeSetDoc {
	doc := ChangeSetDoc{Nodes: cs.Nodes, Edges: cs.Edges}
	if doc.Nodes == nil {
		doc.Nodes = []selection.Change{}
	}
	if doc.Edges == nil {
		doc.Edges = []selection.Change{}
	}
	return doc
}

// MarshalChangeSet encodes a changeset as compact JSON.
func MarshalChangeSet(cs selection.ChangeSet) ([]byte, error) {
	return json.Marshal(FromChangeSet(cs))
}

// StateDoc is a full snapshot of a tracker: the selection plus every
// element that is not in state None. Renderers use it to paint an initial
// frame before applying changesets.
type StateDoc struct {
	Selected []string                   `json:"selected"`
	Nodes    map[string]selection.State `json:"nodes"`
	Edges    map[string]selection.State `json:"edges"`
}

// Snapshot captures the current state of every element of t's topology.
func Snapshot(t *selection.Tracker) StateDoc {
	topo := t.Topology()
	doc := StateDoc{
		Selected: t.Selected(),
		Nodes:    make(map[string]selection.State),
		Edges:    make(map[string]selection.State),
	}
	for _, id := range topo.NodeIDs() {
		if s := t.NodeState(id); s != selection.None {
			doc.Nodes[id] = s
		}
	}
	for _, id := range topo.EdgeIDs() {
		if s := t.EdgeState(id); s != selection.None {
			doc.Edges[id] = s
		}
	}
	return doc
}
