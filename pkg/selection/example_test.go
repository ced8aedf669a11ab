package selection_test

import (
	"fmt"

	"github.com/matzehuels/selgraph/pkg/dag"
	"github.com/matzehuels/selgraph/pkg/selection"
)

func ExampleTracker_SelectNode() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "A"})
	_ = g.AddNode(dag.Node{ID: "B"})
	_ = g.AddNode(dag.Node{ID: "C"})
	_, _ = g.AddEdge(dag.Edge{ID: "e1", From: "A", To: "B"})
	_, _ = g.AddEdge(dag.Edge{ID: "e2", From: "B", To: "C"})

	t := selection.New(g)
	cs := t.SelectNode("A", true)

	for _, c := range cs.Nodes {
		fmt.Printf("node %s: %s -> %s\n", c.ID, c.From, c.To)
	}
	for _, c := range cs.Edges {
		fmt.Printf("edge %s: %s -> %s\n", c.ID, c.From, c.To)
	}
	fmt.Println("C is", t.NodeState("C"))
	// Output:
	// node A: none -> selected
	// node B: none -> frontier
	// edge e1: none -> frontier
	// C is none
}

func ExampleTracker_SelectOnlyNodes() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "x"})
	_ = g.AddNode(dag.Node{ID: "y"})
	_, _ = g.AddEdge(dag.Edge{From: "x", To: "y"})

	t := selection.New(g)
	t.SelectOnlyNodes([]string{"x", "y"})
	fmt.Println("edge:", t.EdgeState("x->y"))

	cs := t.SelectOnlyNodes(nil)
	fmt.Println("changed:", cs.Len())
	// Output:
	// edge: selected
	// changed: 3
}
