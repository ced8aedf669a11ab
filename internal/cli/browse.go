package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/selgraph/pkg/dag"
	"github.com/matzehuels/selgraph/pkg/selection"
	"github.com/matzehuels/selgraph/pkg/session"
)

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "browse <graph>",
		Short: "Select nodes interactively in the terminal",
		Long: `Browse the nodes of a graph, toggle their selection and watch the frontier
and the changeset of every update. With --session the selection is restored
from and saved back to that session on exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], sessionID)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "restore and save this session")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, path, sessionID string) error {
	g, hash, err := readGraph(path)
	if err != nil {
		return err
	}
	t := selection.New(g)

	var (
		store session.Store
		sess  *session.Session
	)
	if sessionID != "" {
		store, err = c.openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		sess, err = loadSession(ctx, store, sessionID)
		if err != nil {
			return err
		}
		restoreSession(ctx, t, sess, hash)
	}

	final, err := tea.NewProgram(newBrowseModel(g, t), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	if store != nil {
		ttl := c.cfg.Session.TTL.Duration
		sess.Graph = hash
		sess.Capture(t, ttl)
		if err := store.Set(ctx, sess); err != nil {
			return err
		}
	}
	if m, ok := final.(browseModel); ok {
		fmt.Printf("%d selected: %s\n", len(m.tracker.Selected()), strings.Join(m.tracker.Selected(), " "))
	}
	return nil
}

// =============================================================================
// Key Bindings
// =============================================================================

type browseKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Only   key.Binding
	Clear  key.Binding
	Quit   key.Binding
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Only, k.Clear, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var browseKeys = browseKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "toggle"),
	),
	Only: key.NewBinding(
		key.WithKeys("enter", "o"),
		key.WithHelp("⏎", "select only"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// =============================================================================
// browseModel - Interactive selection
// =============================================================================

// browseModel is the bubbletea model for the browse command. The tracker is
// only touched from Update, which bubbletea runs on a single goroutine.
type browseModel struct {
	nodes   []*dag.Node
	tracker *selection.Tracker
	last    selection.ChangeSet
	lastOp  string
	cursor  int
	offset  int
	height  int
	help    help.Model
}

func newBrowseModel(g *dag.DAG, t *selection.Tracker) browseModel {
	return browseModel{
		nodes:   g.Nodes(),
		tracker: t,
		height:  15,
		help:    help.New(),
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, browseKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, browseKeys.Up):
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case key.Matches(msg, browseKeys.Down):
			if m.cursor < len(m.nodes)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case key.Matches(msg, browseKeys.Toggle):
			if id, ok := m.current(); ok {
				m.last = m.tracker.SelectNode(id, !m.tracker.IsNodeSelected(id))
				m.lastOp = "toggle " + id
			}
		case key.Matches(msg, browseKeys.Only):
			if id, ok := m.current(); ok {
				m.last = m.tracker.SelectOnlyNodes([]string{id})
				m.lastOp = "only " + id
			}
		case key.Matches(msg, browseKeys.Clear):
			m.last = m.tracker.SelectOnlyNodes(nil)
			m.lastOp = "clear"
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m browseModel) current() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.nodes) {
		return "", false
	}
	return m.nodes[m.cursor].ID, true
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Selection"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d nodes selected", len(m.tracker.Selected()), len(m.nodes))))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.nodes))
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		st := m.tracker.NodeState(n.ID)
		mark := "[ ]"
		if st == selection.Selected {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s%s %-24s %s", cursor, mark, n.DisplayLabel(), st)
		style := stateStyle(st)
		if i == m.cursor {
			style = style.Underline(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if m.lastOp != "" {
		b.WriteString("\n")
		b.WriteString(StyleDim.Render(fmt.Sprintf("%s: %d node and %d edge changes", m.lastOp, len(m.last.Nodes), len(m.last.Edges))))
		b.WriteString("\n")
		b.WriteString(renderChanges(m.last, 6))
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(browseKeys))
	return b.String()
}

// renderChanges lists up to limit changes of cs on one line each.
func renderChanges(cs selection.ChangeSet, limit int) string {
	var lines []string
	add := func(kind string, ch selection.Change) {
		lines = append(lines, fmt.Sprintf("  %s %s %s %s %s",
			StyleDim.Render(kind), ch.ID,
			stateStyle(ch.From).Render(ch.From.String()),
			StyleDim.Render(iconArrow),
			stateStyle(ch.To).Render(ch.To.String())))
	}
	for _, ch := range cs.Nodes {
		add("node", ch)
	}
	for _, ch := range cs.Edges {
		add("edge", ch)
	}
	if len(lines) > limit {
		more := len(lines) - limit
		lines = append(lines[:limit], StyleDim.Render(fmt.Sprintf("  … %d more", more)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
