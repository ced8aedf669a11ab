package nodelink

import (
	"github.com/matzehuels/selgraph/pkg/selection"
)

// Style holds the Graphviz attributes that encode a selection state.
type Style struct {
	Color     string  `json:"color"`
	FillColor string  `json:"fill_color"`
	FontColor string  `json:"font_color"`
	PenWidth  float64 `json:"pen_width"`
	Dashed    bool    `json:"dashed,omitempty"`
}

var (
	styleNone = Style{
		Color:     "#9e9e9e",
		FillColor: "white",
		FontColor: "#424242",
		PenWidth:  1,
	}
	styleSelected = Style{
		Color:     "#00897b",
		FillColor: "#b2dfdb",
		FontColor: "black",
		PenWidth:  3,
	}
	styleFrontier = Style{
		Color:     "#4db6ac",
		FillColor: "#e0f2f1",
		FontColor: "black",
		PenWidth:  2,
		Dashed:    true,
	}
)

// StyleFor returns the style used to draw an element in state s.
func StyleFor(s selection.State) Style {
	switch s {
	case selection.Selected:
		return styleSelected
	case selection.Frontier:
		return styleFrontier
	default:
		return styleNone
	}
}

// Element kinds carried by a Patch.
const (
	KindNode = "node"
	KindEdge = "edge"
)

// Patch is one incremental restyle instruction for a live view.
type Patch struct {
	Kind  string          `json:"kind"`
	ID    string          `json:"id"`
	DOMID string          `json:"dom_id"` // id attribute of the SVG group
	State selection.State `json:"state"`
	Style Style           `json:"style"`
}

// Restyle turns a changeset into patches, nodes first, in changeset order.
func Restyle(cs selection.ChangeSet) []Patch {
	patches := make([]Patch, 0, cs.Len())
	for _, c := range cs.Nodes {
		patches = append(patches, Patch{Kind: KindNode, ID: c.ID, DOMID: nodeDOMID(c.ID), State: c.To, Style: StyleFor(c.To)})
	}
	for _, c := range cs.Edges {
		patches = append(patches, Patch{Kind: KindEdge, ID: c.ID, DOMID: edgeDOMID(c.ID), State: c.To, Style: StyleFor(c.To)})
	}
	return patches
}

func nodeDOMID(id string) string { return "node-" + id }
func edgeDOMID(id string) string { return "edge-" + id }
