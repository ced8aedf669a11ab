// Package nodelink renders selectable graphs as Graphviz node-link diagrams.
//
// [ToDOT] emits a DOT document where every node and edge is styled by its
// selection state and carries an SVG element id ("node-<id>", "edge-<id>").
// [Render] and [RenderSVG] lay the document out with the embedded Graphviz
// (github.com/goccy/go-graphviz), so no system Graphviz install is needed.
//
// After a mutation, [Restyle] converts the changeset into [Patch] values a
// browser view applies to the existing SVG instead of re-rendering it.
package nodelink
