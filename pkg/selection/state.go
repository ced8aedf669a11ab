package selection

import "fmt"

// State is the display state of a node or edge.
type State int

const (
	// None means the element is neither selected nor adjacent to a selection.
	None State = iota
	// Selected means the element was explicitly chosen (nodes) or joins two
	// selected nodes (edges).
	Selected
	// Frontier means the element is adjacent to, or bridges, a selection.
	Frontier
)

var stateNames = [...]string{
	None:     "none",
	Selected: "selected",
	Frontier: "frontier",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// rank orders states by display precedence: Selected > Frontier > None.
func (s State) rank() int {
	switch s {
	case Selected:
		return 2
	case Frontier:
		return 1
	default:
		return 0
	}
}

// Outranks reports whether s takes display precedence over o.
func (s State) Outranks(o State) bool { return s.rank() > o.rank() }

// ParseState parses a state name as produced by [State.String].
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return None, fmt.Errorf("unknown selection state %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Change describes the state transition of a single node or edge.
type Change struct {
	ID   string `json:"id"`
	From State  `json:"from"`
	To   State  `json:"to"`
}

// ChangeSet lists every node and edge whose state changed in one mutation,
// in topology iteration order. Callers treat it as a one-shot diff.
type ChangeSet struct {
	Nodes []Change `json:"nodes"`
	Edges []Change `json:"edges"`
}

// Empty reports whether the mutation changed nothing.
func (cs ChangeSet) Empty() bool { return len(cs.Nodes) == 0 && len(cs.Edges) == 0 }

// Len returns the total number of changed elements.
func (cs ChangeSet) Len() int { return len(cs.Nodes) + len(cs.Edges) }
