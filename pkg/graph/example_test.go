package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/selgraph/pkg/graph"
	"github.com/matzehuels/selgraph/pkg/selection"
)

func ExampleReadGraph() {
	jsonData := `{
		"nodes": [{"id": "A"}, {"id": "B"}, {"id": "C"}],
		"edges": [
			{"id": "e1", "from": "A", "to": "B"},
			{"id": "e2", "from": "B", "to": "C"}
		]
	}`

	g, err := graph.ReadGraph(strings.NewReader(jsonData), graph.FormatJSON)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Nodes:", g.NodeIDs())
	fmt.Println("Edges:", g.EdgeIDs())
	// Output:
	// Nodes: [A B C]
	// Edges: [e1 e2]
}

func ExampleMarshalChangeSet() {
	g, _ := graph.ReadGraph(strings.NewReader(`{
		"nodes": [{"id": "A"}, {"id": "B"}],
		"edges": [{"id": "e1", "from": "A", "to": "B"}]
	}`), graph.FormatJSON)

	t := selection.New(g)
	data, _ := graph.MarshalChangeSet(t.SelectNode("A", true))
	fmt.Println(string(data))
	// Output:
	// {"nodes":[{"id":"A","from":"none","to":"selected"},{"id":"B","from":"none","to":"frontier"}],"edges":[{"id":"e1","from":"none","to":"frontier"}]}
}
