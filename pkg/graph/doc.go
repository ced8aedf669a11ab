// Package graph provides serialization types for displayed graphs and
// selection changesets.
//
// This package defines the wire format shared by the CLI, the HTTP server
// and browser renderers.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Graph], [Node], [Edge]: node-link documents (this package)
//   - pkg/dag.DAG: in-memory topology consumed by selection trackers
//   - [ChangeSetDoc], [StateDoc]: what renderers receive after a mutation
//
// Use [FromDAG]/[ToDAG] to convert between a document and a DAG.
//
// # Graph Serialization
//
// Graphs use a simple node-link format, in JSON or YAML:
//
//	{
//	  "nodes": [{"id": "x"}, {"id": "add.3", "label": "add"}],
//	  "edges": [{"id": "e1", "from": "x", "to": "add.3"}]
//	}
//
// Edge IDs are optional; missing ones are generated as "from->to". Node and
// edge order is preserved and defines changeset order.
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("ir.json")   // File → DAG (.json, .yaml, .yml)
//	graph.WriteGraphFile(g, "out.json")      // DAG → File
//	data, _ := graph.MarshalGraph(g)         // DAG → []byte
//
// # Changesets
//
//	data, _ := graph.MarshalChangeSet(cs)
//	// {"nodes":[{"id":"A","from":"none","to":"selected"}],"edges":[]}
//
// # Concurrency
//
// All functions are safe for concurrent use on distinct values.
package graph
