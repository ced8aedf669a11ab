// Package dag provides the read-only graph topology that selection trackers
// and renderers work against.
//
// # Overview
//
// A [DAG] holds nodes and edges in insertion order. Every element has a
// stable string identifier: node IDs are supplied by the caller, edge IDs
// are either supplied or generated as "from->to". The insertion order is the
// iteration order reported by [DAG.NodeIDs] and [DAG.EdgeIDs], which makes
// selection changesets deterministic.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "param.1"})
//	g.AddNode(dag.Node{ID: "add.2"})
//	g.AddEdge(dag.Edge{From: "param.1", To: "add.2"})
//
// # Adjacency
//
// Edges are directed for rendering, but [DAG.Neighbors] reports adjacency in
// both directions: a node's neighbours are the nodes it feeds and the nodes
// that feed it. This is the notion of adjacency used by the selection
// frontier.
//
// # Concurrency
//
// A DAG must not be mutated concurrently. After construction it is treated
// as immutable and can be shared freely between readers.
package dag
