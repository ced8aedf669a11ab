// Package render provides visualization rendering for selectable graphs.
//
// # Overview
//
// Rendering is an external collaborator of the selection core: it reads the
// per-element state from a selection tracker and turns it into something a
// person can look at. The [nodelink] subpackage draws node-link diagrams
// with Graphviz, styled by selection state, and computes the incremental
// restyle patches a live view applies after each changeset.
//
//	dot := nodelink.ToDOT(g, tracker, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	patches := nodelink.Restyle(tracker.SelectNode("add.3", true))
//
// [nodelink]: github.com/matzehuels/selgraph/pkg/render/nodelink
package render
