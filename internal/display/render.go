// Package display renders analyses and the starting-hand grid for terminals.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/analysis"
)

// cellWidth fits the longest key ("AKs") plus a separating space.
const cellWidth = 4

// Renderer turns analyses into styled text for one output.
type Renderer struct {
	styles Styles
}

// NewRenderer detects the color profile of w. When noColor is set every
// style degrades to plain text.
func NewRenderer(w io.Writer, noColor bool) *Renderer {
	lr := lipgloss.NewRenderer(w)
	if noColor {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{styles: NewStyles(lr)}
}

// Styles returns the styles in use.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Card renders a card in its suit color.
func (r *Renderer) Card(c poker.Card) string {
	if c.Suit.IsRed() {
		return r.styles.RedCard.Render(c.String())
	}
	return r.styles.BlackCard.Render(c.String())
}

// Strength renders a strength label in its category color.
func (r *Renderer) Strength(s poker.HandStrength) string {
	return r.styles.Category(s.Category).Render(fmt.Sprintf("%s (%d)", s.Label(), s.Value))
}

// Analysis renders the headline and the list of reachable hands.
func (r *Renderer) Analysis(a analysis.HandAnalysis) string {
	var b strings.Builder

	b.WriteString(r.Card(a.Cards[0]))
	b.WriteString(" ")
	b.WriteString(r.Card(a.Cards[1]))
	b.WriteString("  ")
	b.WriteString(r.styles.Header.Render(string(a.Key)))
	b.WriteString("  ")
	b.WriteString(r.Strength(a.Strength))
	b.WriteString("\n")

	nameWidth := 0
	for _, h := range a.PossibleHands {
		nameWidth = max(nameWidth, len(h.Name))
	}

	for _, h := range a.PossibleHands {
		mark := r.styles.Muted.Render("·")
		if h.Completed {
			mark = r.styles.Success.Render("✓")
		}
		line := fmt.Sprintf("  %s %-*s  %s", mark, nameWidth, h.Name, h.Description)
		if len(h.RequiredCards) > 0 {
			line += "  " + r.styles.Muted.Render("["+strings.Join(h.RequiredCards, " ")+"]")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}

// Grid renders the 13x13 starting-hand grid: pairs on the diagonal, suited
// hands above it, offsuit below. Classes outside rng are dimmed; a nil range
// shows every class.
func (r *Renderer) Grid(rng *analysis.Range) string {
	hands := poker.StartingHands()

	rows := make([]string, 0, poker.NumRanks)
	for row := range poker.NumRanks {
		cells := make([]string, 0, poker.NumRanks)
		for col := range poker.NumRanks {
			h := hands[row*poker.NumRanks+col]
			style := r.styles.Category(poker.StrengthOf(h.Key).Category)
			if rng != nil && !rng.Contains(h.Key) {
				style = r.styles.Muted
			}
			cells = append(cells, style.Width(cellWidth).Render(string(h.Key)))
		}
		rows = append(rows, strings.TrimRight(strings.Join(cells, ""), " "))
	}

	return strings.Join(rows, "\n") + "\n"
}

// Legend renders one line per category with its class count.
func (r *Renderer) Legend(counts map[poker.Category]int) string {
	var b strings.Builder
	for i := len(poker.Categories) - 1; i >= 0; i-- {
		c := poker.Categories[i]
		fmt.Fprintf(&b, "%s %d\n", r.styles.Category(c).Render(fmt.Sprintf("%-16s", c)), counts[c])
	}
	return b.String()
}

// Error renders an error message.
func (r *Renderer) Error(err error) string {
	return r.styles.Error.Render("error: " + err.Error())
}
