// Package selection tracks which elements of a displayed graph are selected,
// which sit on the frontier of a selection, and which are unaffected.
//
// # Overview
//
// A [Tracker] wraps a read-only [Topology] and owns exactly one piece of
// mutable state: the set of selected node IDs. Every per-element [State] is
// derived on demand from that set and the topology; nothing is cached and no
// element carries its own flag.
//
// # State Rules
//
// A node is [Selected] if its ID is in the selection, [Frontier] if any of
// its neighbours is selected, and [None] otherwise.
//
// An edge is Selected if both endpoints are selected. It is Frontier if at
// least one endpoint is selected, or if both endpoints are on the frontier;
// the latter lets two separate selection neighbourhoods appear connected.
// Otherwise it is None.
//
// # Changesets
//
// [Tracker.SelectNode] and [Tracker.SelectOnlyNodes] are the only mutations.
// Each snapshots the state of every node and edge, applies the mutation,
// recomputes every state, and returns a [ChangeSet] listing exactly the
// elements whose state differs, in topology order. Renderers use the
// changeset to restyle only what changed.
//
// The diff walks the whole graph, O(V+E) per mutation. Mutations are
// triggered by people clicking, so this is never the hot path.
//
//	t := selection.New(g)
//	cs := t.SelectNode("add.3", true)
//	for _, c := range cs.Nodes {
//	    fmt.Println(c.ID, c.From, "->", c.To)
//	}
//
// # Unknown IDs
//
// Unknown IDs are never an error. Querying one yields None; selecting one is
// accepted and simply never shows up on a real element.
//
// # Concurrency
//
// A Tracker is not safe for concurrent use. Owners that share one across
// goroutines (for example an HTTP server) must serialize access.
package selection
