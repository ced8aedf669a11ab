package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/selgraph/pkg/dag"
	"github.com/matzehuels/selgraph/pkg/selection"
)

func chainDAG(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range []string{"A", "B", "C"} {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"A", "B"}, {"B", "C"}} {
		if _, err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func press(m browseModel, keys ...string) browseModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(browseModel)
	}
	return m
}

func TestBrowseToggle(t *testing.T) {
	g := chainDAG(t)
	m := newBrowseModel(g, selection.New(g))

	m = press(m, "down", " ")
	if !m.tracker.IsNodeSelected("B") {
		t.Fatal("space did not select the node under the cursor")
	}
	if m.last.Len() != 5 {
		t.Errorf("toggle changeset has %d changes, want 5", m.last.Len())
	}

	m = press(m, " ")
	if m.tracker.IsNodeSelected("B") {
		t.Error("second space did not unselect")
	}
	if got := m.tracker.Selected(); len(got) != 0 {
		t.Errorf("Selected() = %v, want empty", got)
	}
}

func TestBrowseOnlyAndClear(t *testing.T) {
	g := chainDAG(t)
	tr := selection.New(g)
	tr.SelectOnlyNodes([]string{"A", "C"})
	m := newBrowseModel(g, tr)

	m = press(m, "down", "enter")
	if got := m.tracker.Selected(); len(got) != 1 || got[0] != "B" {
		t.Errorf("after select-only: %v, want [B]", got)
	}

	m = press(m, "c")
	if m.tracker.NodeState("A") != selection.None || m.tracker.EdgeState("A->B") != selection.None {
		t.Error("clear left non-None state behind")
	}
	if m.lastOp != "clear" {
		t.Errorf("lastOp = %q", m.lastOp)
	}
}

func TestBrowseCursorBounds(t *testing.T) {
	g := chainDAG(t)
	m := newBrowseModel(g, selection.New(g))

	m = press(m, "up", "up")
	if m.cursor != 0 {
		t.Errorf("cursor = %d after moving above the top", m.cursor)
	}
	m = press(m, "down", "down", "down", "down")
	if m.cursor != 2 {
		t.Errorf("cursor = %d after moving past the end", m.cursor)
	}
}

func TestBrowseQuit(t *testing.T) {
	g := chainDAG(t)
	m := newBrowseModel(g, selection.New(g))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestBrowseView(t *testing.T) {
	g := chainDAG(t)
	m := press(newBrowseModel(g, selection.New(g)), " ")

	view := m.View()
	for _, want := range []string{"[x] A", "frontier", "toggle A", "1/3 nodes selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
