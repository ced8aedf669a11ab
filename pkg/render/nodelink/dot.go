package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/selgraph/pkg/dag"
	"github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/observability"
	"github.com/matzehuels/selgraph/pkg/selection"
)

// StateSource reports the selection state of graph elements.
// *selection.Tracker satisfies it.
type StateSource interface {
	NodeState(id string) selection.State
	EdgeState(id string) selection.State
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes metadata in node labels.
	// When false, only the display label is shown.
	Detailed bool

	// RankDir is the Graphviz rank direction (TB, LR, ...). Defaults to TB.
	RankDir string
}

// ToDOT converts a graph to Graphviz DOT, styling every element by the state
// reported by s. A nil s draws everything in state None.
func ToDOT(g *dag.DAG, s StateSource, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		st := selection.None
		if s != nil {
			st = s.NodeState(n.ID)
		}
		attrs := nodeAttrs(*n, fmtLabel(*n, opts.Detailed), StyleFor(st))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		st := selection.None
		if s != nil {
			st = s.EdgeState(e.ID)
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(e, StyleFor(st)), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dag.Node, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed || len(n.Meta) == 0 {
		return label
	}

	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func nodeAttrs(n dag.Node, label string, st Style) []string {
	style := "rounded,filled"
	if st.Dashed {
		style += ",dashed"
	}
	return []string{
		fmt.Sprintf("id=%q", nodeDOMID(n.ID)),
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("style=%q", style),
		fmt.Sprintf("color=%q", st.Color),
		fmt.Sprintf("fillcolor=%q", st.FillColor),
		fmt.Sprintf("fontcolor=%q", st.FontColor),
		"penwidth=" + strconv.FormatFloat(st.PenWidth, 'g', -1, 64),
	}
}

func edgeAttrs(e dag.Edge, st Style) []string {
	attrs := []string{
		fmt.Sprintf("id=%q", edgeDOMID(e.ID)),
		fmt.Sprintf("color=%q", st.Color),
		"penwidth=" + strconv.FormatFloat(st.PenWidth, 'g', -1, 64),
	}
	if st.Dashed {
		attrs = append(attrs, `style="dashed"`)
	}
	return attrs
}

// Format is an output format supported by [Render].
type Format string

// Output formats.
const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDOT, FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q (want dot, svg or png)", s)
	}
}

// Render lays out a DOT document and encodes it as format.
// FormatDOT returns the document unchanged.
func Render(ctx context.Context, dot string, format Format) (out []byte, err error) {
	if format == FormatDOT {
		return []byte(dot), nil
	}

	hooks := observability.Render()
	hooks.OnRenderStart(ctx, string(format), strings.Count(dot, "\n"))
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, string(format), time.Since(start), err) }()

	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render %s", format)
	}
	if format == FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return Render(ctx, dot, FormatSVG)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag to a zero-origin viewBox with
// matching width and height so the drawing scales inside a browser pane.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
