package dag

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	// All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateEdgeID is returned by [DAG.AddEdge] when an edge with an
	// explicit ID collides with an existing edge.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrGraphHasCycle is returned by [DAG.Acyclic] when a directed cycle is
	// detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or edges, such
// as an IR opcode or the bit width of a value. Metadata maps are never nil
// once the element has been added to a graph.
type Metadata map[string]any

// Node is a vertex of the displayed graph.
//
// The zero value is not usable - ID must be set before adding to a DAG.
type Node struct {
	ID    string   // Unique identifier
	Label string   // Display label; empty means use ID
	Meta  Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed connection between two nodes. Selection treats edges as
// undirected: both endpoints are neighbours of each other.
type Edge struct {
	ID   string   // Unique identifier; generated from From and To when empty
	From string   // Source node ID
	To   string   // Target node ID
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// DAG is an immutable-after-construction graph topology. Nodes and edges keep
// their insertion order, which is the iteration order reported to selection
// trackers and renderers.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent mutation; once built it may be read from
// any number of goroutines.
type DAG struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string
	neighbors map[string][]string // nodeID -> adjacent node IDs, both directions
	outgoing  map[string][]string // nodeID -> target node IDs
	meta      Metadata
}

// New creates an empty DAG with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:     make(map[string]*Node),
		edges:     make(map[string]*Edge),
		neighbors: make(map[string][]string),
		outgoing:  make(map[string][]string),
		meta:      meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode appends a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	d.nodes[n.ID] = &n
	d.nodeOrder = append(d.nodeOrder, n.ID)
	return nil
}

// AddEdge appends an edge between two existing nodes and returns its ID.
//
// When e.ID is empty an ID of the form "from->to" is generated; parallel
// edges get a "#n" suffix so every edge stays addressable. An explicit ID
// that is already taken yields ErrDuplicateEdgeID.
func (d *DAG) AddEdge(e Edge) (string, error) {
	if _, ok := d.nodes[e.From]; !ok {
		return "", ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return "", ErrUnknownTargetNode
	}
	if e.ID == "" {
		e.ID = d.generateEdgeID(e.From, e.To)
	} else if _, exists := d.edges[e.ID]; exists {
		return "", ErrDuplicateEdgeID
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges[e.ID] = &e
	d.edgeOrder = append(d.edgeOrder, e.ID)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.link(e.From, e.To)
	d.link(e.To, e.From)
	return e.ID, nil
}

func (d *DAG) generateEdgeID(from, to string) string {
	base := from + "->" + to
	id := base
	for i := 1; ; i++ {
		if _, exists := d.edges[id]; !exists {
			return id
		}
		id = fmt.Sprintf("%s#%d", base, i)
	}
}

// link records b as a neighbour of a unless it is already present.
func (d *DAG) link(a, b string) {
	if !slices.Contains(d.neighbors[a], b) {
		d.neighbors[a] = append(d.neighbors[a], b)
	}
}

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Edge returns the edge with the given ID and true, or nil and false if not found.
func (d *DAG) Edge(id string) (*Edge, bool) {
	e, ok := d.edges[id]
	return e, ok
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, len(d.nodeOrder))
	for i, id := range d.nodeOrder {
		nodes[i] = d.nodes[id]
	}
	return nodes
}

// Edges returns a copy of all edges in insertion order. Modifications to the
// returned slice or its edge structs do not affect the graph.
func (d *DAG) Edges() []Edge {
	edges := make([]Edge, len(d.edgeOrder))
	for i, id := range d.edgeOrder {
		edges[i] = *d.edges[id]
	}
	return edges
}

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodeOrder) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edgeOrder) }

// NodeIDs returns every node ID in insertion order.
func (d *DAG) NodeIDs() []string { return slices.Clone(d.nodeOrder) }

// EdgeIDs returns every edge ID in insertion order.
func (d *DAG) EdgeIDs() []string { return slices.Clone(d.edgeOrder) }

// Endpoints returns the source and target node IDs of an edge.
// ok is false for an unknown edge ID.
func (d *DAG) Endpoints(edgeID string) (source, target string, ok bool) {
	e, ok := d.edges[edgeID]
	if !ok {
		return "", "", false
	}
	return e.From, e.To, true
}

// Neighbors returns the IDs of nodes sharing an edge with id, regardless of
// direction, in first-seen order and without duplicates. A self-loop makes a
// node its own neighbour. Returns nil for unknown or isolated nodes. The
// returned slice should not be modified.
func (d *DAG) Neighbors(id string) []string { return d.neighbors[id] }

// Children returns the IDs of nodes this node has edges to.
// The returned slice should not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Degree returns the number of distinct neighbours of the node.
func (d *DAG) Degree(id string) int { return len(d.neighbors[id]) }

// Validate checks that every edge connects existing nodes.
// Returns ErrInvalidEdgeEndpoint if an edge references a missing node.
func (d *DAG) Validate() error {
	for _, id := range d.edgeOrder {
		e := d.edges[id]
		_, okS := d.nodes[e.From]
		_, okD := d.nodes[e.To]
		if !okS || !okD {
			return fmt.Errorf("%w: edge %s", ErrInvalidEdgeEndpoint, id)
		}
	}
	return nil
}

// Acyclic returns ErrGraphHasCycle if the directed edges form a cycle.
// Selection does not require acyclicity; renderers use it to choose a
// ranked layout. Runs in O(N+E) using depth-first search.
func (d *DAG) Acyclic() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range d.nodeOrder {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}
