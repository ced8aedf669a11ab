// Package pkg provides the libraries behind selgraph.
//
// # Overview
//
// selgraph tracks which nodes of a displayed graph are selected, which nodes
// and edges sit on the frontier of that selection, and reports exactly which
// elements changed state after every update. The pkg directory is organized
// into these areas:
//
//  1. [selection] - The selection tracker and its changesets
//  2. [dag] - Graph topology consumed by trackers
//  3. [graph] - JSON/YAML documents for graphs, changesets and snapshots
//  4. [render] - Graphviz rendering with selection styling
//  5. [session] - Persistence of selections (file, Redis, MongoDB)
//  6. [cache], [observability], [errors] - Supporting infrastructure
//
// # Architecture
//
//	graph document (.json/.yaml)
//	         ↓
//	    [graph] package (decode)
//	         ↓
//	    [dag] package (topology)
//	         ↓
//	    [selection] package (states + changesets)
//	         ↓
//	    [render/nodelink] / [session] / HTTP clients
//
// # Quick Start
//
//	g, _ := graph.ReadGraphFile("ir.json")
//	t := selection.New(g)
//
//	cs := t.SelectNode("add.3", true)
//	for _, ch := range cs.Nodes {
//	    fmt.Println(ch.ID, ch.From, "→", ch.To)
//	}
//
//	dot := nodelink.ToDOT(g, t, nodelink.Options{})
//	svg, _ := nodelink.RenderSVG(ctx, dot)
package pkg
