package selection

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/selgraph/pkg/dag"
)

// buildGraph creates a DAG from node IDs and "id:from-to" edge specs.
func buildGraph(t *testing.T, nodes []string, edges [][3]string) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range nodes {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range edges {
		if _, err := g.AddEdge(dag.Edge{ID: e[0], From: e[1], To: e[2]}); err != nil {
			t.Fatalf("AddEdge(%s): %v", e[0], err)
		}
	}
	return g
}

// chain returns A - B - C connected by e1 and e2.
func chain(t *testing.T) *dag.DAG {
	return buildGraph(t, []string{"A", "B", "C"}, [][3]string{
		{"e1", "A", "B"},
		{"e2", "B", "C"},
	})
}

func assertChanges(t *testing.T, kind string, got, want []Change) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("%s changes = %v, want %v", kind, got, want)
	}
}

func TestInitialStateIsNone(t *testing.T) {
	tr := New(chain(t))
	for _, id := range []string{"A", "B", "C"} {
		if s := tr.NodeState(id); s != None {
			t.Errorf("NodeState(%s) = %v, want none", id, s)
		}
	}
	for _, id := range []string{"e1", "e2"} {
		if s := tr.EdgeState(id); s != None {
			t.Errorf("EdgeState(%s) = %v, want none", id, s)
		}
	}
}

func TestChainScenario(t *testing.T) {
	tr := New(chain(t))

	cs := tr.SelectNode("A", true)
	assertChanges(t, "node", cs.Nodes, []Change{
		{ID: "A", From: None, To: Selected},
		{ID: "B", From: None, To: Frontier},
	})
	assertChanges(t, "edge", cs.Edges, []Change{
		{ID: "e1", From: None, To: Frontier},
	})

	cs = tr.SelectNode("C", true)
	assertChanges(t, "node", cs.Nodes, []Change{
		{ID: "C", From: None, To: Selected},
	})
	assertChanges(t, "edge", cs.Edges, []Change{
		{ID: "e2", From: None, To: Frontier},
	})

	cs = tr.SelectOnlyNodes([]string{"B"})
	assertChanges(t, "node", cs.Nodes, []Change{
		{ID: "A", From: Selected, To: Frontier},
		{ID: "B", From: Frontier, To: Selected},
		{ID: "C", From: Selected, To: Frontier},
	})
	// Each edge still touches exactly one selected node.
	assertChanges(t, "edge", cs.Edges, nil)

	if got := tr.Selected(); !slices.Equal(got, []string{"B"}) {
		t.Errorf("Selected() = %v, want [B]", got)
	}
}

func TestEdgeStateRules(t *testing.T) {
	// a - b - c - d with x dangling off d.
	g := buildGraph(t, []string{"a", "b", "c", "d", "x"}, [][3]string{
		{"ab", "a", "b"},
		{"bc", "b", "c"},
		{"cd", "c", "d"},
		{"dx", "d", "x"},
	})

	tests := []struct {
		name     string
		selected []string
		want     map[string]State
	}{
		{
			name:     "both endpoints selected",
			selected: []string{"a", "b"},
			want:     map[string]State{"ab": Selected, "bc": Frontier, "cd": None, "dx": None},
		},
		{
			name:     "both endpoints on separate frontiers",
			selected: []string{"a", "d"},
			// b and c are each adjacent to a different selection.
			want: map[string]State{"ab": Frontier, "bc": Frontier, "cd": Frontier, "dx": Frontier},
		},
		{
			name:     "one frontier endpoint only",
			selected: []string{"x"},
			want:     map[string]State{"ab": None, "bc": None, "cd": None, "dx": Frontier},
		},
		{
			name:     "nothing selected",
			selected: nil,
			want:     map[string]State{"ab": None, "bc": None, "cd": None, "dx": None},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(g)
			tr.SelectOnlyNodes(tt.selected)
			for id, want := range tt.want {
				if got := tr.EdgeState(id); got != want {
					t.Errorf("EdgeState(%s) = %v, want %v", id, got, want)
				}
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	tr := New(chain(t))
	tr.SelectNode("A", true)

	if !tr.IsNodeSelected("A") || tr.IsNodeOnFrontier("A") {
		t.Error("A should be selected and not on the frontier")
	}
	if tr.IsNodeSelected("B") || !tr.IsNodeOnFrontier("B") {
		t.Error("B should be on the frontier")
	}
	if tr.IsEdgeSelected("e1") || !tr.IsEdgeOnFrontier("e1") {
		t.Error("e1 should be on the frontier")
	}

	tr.SelectNode("B", true)
	if !tr.IsEdgeSelected("e1") {
		t.Error("e1 should be selected once both endpoints are")
	}
}

func TestSelectNodeIsIdempotent(t *testing.T) {
	tr := New(chain(t))
	if cs := tr.SelectNode("B", true); cs.Empty() {
		t.Fatal("first SelectNode should change state")
	}
	if cs := tr.SelectNode("B", true); !cs.Empty() {
		t.Errorf("second SelectNode = %+v, want empty", cs)
	}
	if cs := tr.SelectNode("A", false); !cs.Empty() {
		t.Errorf("unselecting an unselected node = %+v, want empty", cs)
	}
}

func TestSelectOnlyNodesEmptyClearsEverything(t *testing.T) {
	tr := New(chain(t))
	tr.SelectNode("A", true)
	tr.SelectNode("C", true)

	cs := tr.SelectOnlyNodes([]string{})
	assertChanges(t, "node", cs.Nodes, []Change{
		{ID: "A", From: Selected, To: None},
		{ID: "B", From: Frontier, To: None},
		{ID: "C", From: Selected, To: None},
	})
	assertChanges(t, "edge", cs.Edges, []Change{
		{ID: "e1", From: Frontier, To: None},
		{ID: "e2", From: Frontier, To: None},
	})
	if got := tr.Selected(); len(got) != 0 {
		t.Errorf("Selected() = %v, want empty", got)
	}
}

func TestSelectOnlyNodesDeduplicates(t *testing.T) {
	tr := New(chain(t))
	cs := tr.SelectOnlyNodes([]string{"A", "A", "A"})
	if got := tr.Selected(); !slices.Equal(got, []string{"A"}) {
		t.Errorf("Selected() = %v, want [A]", got)
	}
	if len(cs.Nodes) != 2 {
		t.Errorf("node changes = %v, want 2 entries", cs.Nodes)
	}
}

func TestUnknownIDs(t *testing.T) {
	tr := New(chain(t))

	if s := tr.NodeState("ghost"); s != None {
		t.Errorf("NodeState(ghost) = %v, want none", s)
	}
	if s := tr.EdgeState("ghost"); s != None {
		t.Errorf("EdgeState(ghost) = %v, want none", s)
	}

	cs := tr.SelectNode("ghost", true)
	if !cs.Empty() {
		t.Errorf("selecting an unknown node = %+v, want empty", cs)
	}
	if !tr.IsNodeSelected("ghost") {
		t.Error("unknown id is still recorded in the selection")
	}
	for _, id := range []string{"A", "B", "C"} {
		if s := tr.NodeState(id); s != None {
			t.Errorf("NodeState(%s) = %v, want none", id, s)
		}
	}
}

func TestSelfLoop(t *testing.T) {
	g := buildGraph(t, []string{"n"}, [][3]string{{"loop", "n", "n"}})
	tr := New(g)
	cs := tr.SelectNode("n", true)
	assertChanges(t, "node", cs.Nodes, []Change{{ID: "n", From: None, To: Selected}})
	assertChanges(t, "edge", cs.Edges, []Change{{ID: "loop", From: None, To: Selected}})
}

func TestHooksReceiveMutations(t *testing.T) {
	h := &recordingHooks{}
	tr := New(chain(t), WithHooks(h))

	tr.SelectNode("A", true)
	tr.SelectOnlyNodes(nil)

	want := []string{"select_node 2/1", "select_only_nodes 2/1"}
	if !slices.Equal(h.events, want) {
		t.Errorf("hook events = %v, want %v", h.events, want)
	}
}

// snapshot derives every state directly, independent of any changeset.
func snapshot(tr *Tracker) (nodes, edges map[string]State) {
	topo := tr.Topology()
	nodes = make(map[string]State)
	for _, id := range topo.NodeIDs() {
		nodes[id] = tr.NodeState(id)
	}
	edges = make(map[string]State)
	for _, id := range topo.EdgeIDs() {
		edges[id] = tr.EdgeState(id)
	}
	return nodes, edges
}

func expectedChanges(ids []string, before, after map[string]State) []Change {
	var out []Change
	for _, id := range ids {
		if before[id] != after[id] {
			out = append(out, Change{ID: id, From: before[id], To: after[id]})
		}
	}
	return out
}

func TestChangeSetCompleteness(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 20; round++ {
		const n = 12
		g := dag.New(nil)
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("n%d", i)
			_ = g.AddNode(dag.Node{ID: ids[i]})
		}
		for i := 0; i < 18; i++ {
			_, _ = g.AddEdge(dag.Edge{From: ids[rng.IntN(n)], To: ids[rng.IntN(n)]})
		}

		tr := New(g)
		for step := 0; step < 30; step++ {
			beforeNodes, beforeEdges := snapshot(tr)

			var cs ChangeSet
			if rng.IntN(4) == 0 {
				var only []string
				for _, id := range ids {
					if rng.IntN(3) == 0 {
						only = append(only, id)
					}
				}
				cs = tr.SelectOnlyNodes(only)
			} else {
				cs = tr.SelectNode(ids[rng.IntN(n)], rng.IntN(2) == 0)
			}

			afterNodes, afterEdges := snapshot(tr)
			assertChanges(t, "node", cs.Nodes, expectedChanges(g.NodeIDs(), beforeNodes, afterNodes))
			assertChanges(t, "edge", cs.Edges, expectedChanges(g.EdgeIDs(), beforeEdges, afterEdges))

			checkInvariants(t, tr, g)
		}
	}
}

func checkInvariants(t *testing.T, tr *Tracker, g *dag.DAG) {
	t.Helper()
	selected := make(map[string]bool)
	for _, id := range tr.Selected() {
		selected[id] = true
	}
	for _, id := range g.NodeIDs() {
		s := tr.NodeState(id)
		if (s == Selected) != selected[id] {
			t.Fatalf("NodeState(%s) = %v but selected = %v", id, s, selected[id])
		}
		if !selected[id] {
			adjacent := slices.ContainsFunc(g.Neighbors(id), func(nb string) bool { return selected[nb] })
			if (s == Frontier) != adjacent {
				t.Fatalf("NodeState(%s) = %v but adjacent to selection = %v", id, s, adjacent)
			}
		}
	}
	for _, id := range g.EdgeIDs() {
		src, dst, _ := g.Endpoints(id)
		both := tr.NodeState(src) == Selected && tr.NodeState(dst) == Selected
		if (tr.EdgeState(id) == Selected) != both {
			t.Fatalf("EdgeState(%s) = %v but both endpoints selected = %v", id, tr.EdgeState(id), both)
		}
	}
}

type recordingHooks struct {
	events []string
}

func (h *recordingHooks) OnMutation(op string, nodes, edges int, _ time.Duration) {
	h.events = append(h.events, fmt.Sprintf("%s %d/%d", op, nodes, edges))
}
