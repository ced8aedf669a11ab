package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/selgraph/pkg/selection"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - selected
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorAqua   = lipgloss.Color("80")  // Light teal - frontier
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleFrontier = lipgloss.NewStyle().Foreground(colorAqua)
	styleNone     = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// stateStyle returns the terminal style for a selection state.
func stateStyle(s selection.State) lipgloss.Style {
	switch s {
	case selection.Selected:
		return styleSelected
	case selection.Frontier:
		return styleFrontier
	default:
		return styleNone
	}
}

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

func printWarning(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

func printInfo(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// =============================================================================
// Changesets
// =============================================================================

// printChangeSet prints one line per changed element:
//
//	node  B      none → frontier
func printChangeSet(w io.Writer, cs selection.ChangeSet) {
	if cs.Empty() {
		printDetail(w, "no changes")
		return
	}
	for _, ch := range cs.Nodes {
		printChange(w, "node", ch)
	}
	for _, ch := range cs.Edges {
		printChange(w, "edge", ch)
	}
}

func printChange(w io.Writer, kind string, ch selection.Change) {
	idStyle := lipgloss.NewStyle().Foreground(colorWhite).Width(16)
	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		StyleDim.Render(kind),
		idStyle.Render(ch.ID),
		stateStyle(ch.From).Render(ch.From.String()),
		StyleDim.Render(iconArrow),
		stateStyle(ch.To).Render(ch.To.String()),
	)
}
