// Package tui is an interactive terminal front end for the hand analyzer.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/handscope/internal/display"
	"github.com/lox/handscope/poker"
	"github.com/lox/handscope/sdk/analysis"
)

// maxResults bounds how many past analyses stay in the viewport.
const maxResults = 50

// Model is the bubbletea model for the analyzer.
type Model struct {
	logger   *log.Logger
	renderer *display.Renderer

	input    textinput.Model
	viewport viewport.Model

	results  []string // rendered analyses, newest first
	lastErr  error
	quitting bool

	width  int
	height int
}

// NewModel creates the analyzer model.
func NewModel(logger *log.Logger, renderer *display.Renderer) *Model {
	vp := viewport.New(10, 5)

	ti := textinput.New()
	ti.Placeholder = "Hole cards, e.g. As Kd or 10h 9h"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 40
	ti.Prompt = "> "
	ti.PromptStyle = PromptStyle

	return &Model{
		logger:   logger.WithPrefix("tui"),
		renderer: renderer,
		input:    ti,
		viewport: vp,
	}
}

// Run starts the analyzer and blocks until the user quits or ctx ends.
func Run(ctx context.Context, logger *log.Logger, renderer *display.Renderer) error {
	p := tea.NewProgram(NewModel(logger, renderer), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and resizes.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.submit(m.input.Value())
			m.input.SetValue("")
			return m, nil
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit analyzes the entered cards and shows the result or the error.
func (m *Model) submit(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}

	c1, c2, err := poker.ParseHoleCards(value)
	if err == nil {
		var a analysis.HandAnalysis
		a, err = analysis.Analyze(c1, c2)
		if err == nil {
			m.lastErr = nil
			m.results = append([]string{m.renderer.Analysis(a)}, m.results...)
			if len(m.results) > maxResults {
				m.results = m.results[:maxResults]
			}
			m.viewport.SetContent(m.Content())
			m.viewport.GotoTop()
			m.logger.Debug("Analyzed hand", "key", a.Key)
			return
		}
	}

	m.lastErr = err
	m.logger.Debug("Rejected input", "input", value, "error", err)
}

func (m *Model) resize() {
	// Header, error line, input and help take four rows; the pane border two.
	m.viewport.Width = max(1, m.width-2)
	m.viewport.Height = max(1, m.height-6)
	m.input.Width = max(1, m.width-4)
}

// Content returns the rendered analyses, newest first.
func (m *Model) Content() string {
	return strings.Join(m.results, "\n")
}

// Err returns the error from the last submission, if any.
func (m *Model) Err() error {
	return m.lastErr
}

// View renders the analyzer.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	errLine := ""
	if m.lastErr != nil {
		errLine = ErrorStyle.Render(m.lastErr.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render("handscope"),
		PaneStyle.Width(m.viewport.Width).Render(m.viewport.View()),
		errLine,
		m.input.View(),
		HelpStyle.Render("Enter to analyze • PgUp/PgDn to scroll • Esc to quit"),
	)
}
