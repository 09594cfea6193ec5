package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/handscope/poker"
)

// Styles holds every style the renderers use, bound to one lipgloss renderer.
type Styles struct {
	Header    lipgloss.Style
	RedCard   lipgloss.Style
	BlackCard lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style

	categories map[poker.Category]lipgloss.Style
}

// NewStyles builds the palette on r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true),
		RedCard: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		BlackCard: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FAFAFA"}).
			Bold(true),
		Success: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Error: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Muted: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		categories: map[poker.Category]lipgloss.Style{
			poker.CategoryFold:            r.NewStyle().Foreground(lipgloss.Color("#626262")),
			poker.CategoryWeak:            r.NewStyle().Foreground(lipgloss.Color("#FFEAA7")),
			poker.CategoryNormal:          r.NewStyle().Foreground(lipgloss.Color("#96CEB4")),
			poker.CategoryStrong:          r.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
			poker.CategoryExtremelyStrong: r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
}

// Category returns the style for a strength category.
func (s Styles) Category(c poker.Category) lipgloss.Style {
	if style, ok := s.categories[c]; ok {
		return style
	}
	return s.Muted
}
