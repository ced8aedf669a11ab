package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/selgraph/pkg/dag"
	"github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/selection"
)

func chain() *dag.DAG {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "A", Meta: dag.Metadata{"op": "param"}})
	_ = g.AddNode(dag.Node{ID: "B", Label: "add"})
	_ = g.AddNode(dag.Node{ID: "C"})
	_, _ = g.AddEdge(dag.Edge{ID: "e1", From: "A", To: "B"})
	_, _ = g.AddEdge(dag.Edge{ID: "e2", From: "B", To: "C"})
	return g
}

func TestToDOTStylesByState(t *testing.T) {
	g := chain()
	tr := selection.New(g)
	tr.SelectNode("A", true)

	dot := ToDOT(g, tr, Options{})

	for _, want := range []string{
		`"A" [id="node-A", label="A", style="rounded,filled", color="#00897b"`,
		`"B" [id="node-B", label="add", style="rounded,filled,dashed", color="#4db6ac"`,
		`"C" [id="node-C", label="C", style="rounded,filled", color="#9e9e9e"`,
		`"A" -> "B" [id="edge-e1", color="#4db6ac", penwidth=2, style="dashed"]`,
		`"B" -> "C" [id="edge-e2", color="#9e9e9e", penwidth=1]`,
		"rankdir=TB;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTNilSource(t *testing.T) {
	dot := ToDOT(chain(), nil, Options{RankDir: "LR", Detailed: true})
	if strings.Contains(dot, StyleFor(selection.Selected).Color) {
		t.Error("nil state source should draw nothing as selected")
	}
	if !strings.Contains(dot, "rankdir=LR;") {
		t.Error("RankDir not applied")
	}
	if !strings.Contains(dot, `label="A\nop: param"`) {
		t.Errorf("detailed label missing metadata:\n%s", dot)
	}
}

func TestRestyle(t *testing.T) {
	tr := selection.New(chain())
	patches := Restyle(tr.SelectNode("A", true))

	want := []struct {
		kind, id, dom string
		state         selection.State
	}{
		{KindNode, "A", "node-A", selection.Selected},
		{KindNode, "B", "node-B", selection.Frontier},
		{KindEdge, "e1", "edge-e1", selection.Frontier},
	}
	if len(patches) != len(want) {
		t.Fatalf("got %d patches, want %d: %+v", len(patches), len(want), patches)
	}
	for i, w := range want {
		p := patches[i]
		if p.Kind != w.kind || p.ID != w.id || p.DOMID != w.dom || p.State != w.state {
			t.Errorf("patch %d = %+v, want %+v", i, p, w)
		}
		if p.Style != StyleFor(w.state) {
			t.Errorf("patch %d style = %+v, want %+v", i, p.Style, StyleFor(w.state))
		}
	}

	if got := Restyle(selection.ChangeSet{}); len(got) != 0 {
		t.Errorf("empty changeset produced %d patches", len(got))
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"dot", "SVG", "png"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(pdf) = %v, want INVALID_FORMAT", err)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(noBox); !bytes.Equal(got, noBox) {
		t.Error("svg without viewBox should be unchanged")
	}
}

func TestRenderDOTPassthrough(t *testing.T) {
	out, err := Render(context.Background(), "digraph G {}", FormatDOT)
	if err != nil || string(out) != "digraph G {}" {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	g := chain()
	tr := selection.New(g)
	tr.SelectNode("B", true)

	svg, err := RenderSVG(context.Background(), ToDOT(g, tr, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
	if !bytes.Contains(svg, []byte(`id="node-B"`)) {
		t.Error("SVG should carry element ids for incremental restyling")
	}
}
