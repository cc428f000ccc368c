// Package dashboard provides the quota table tab for the Quota Watch TUI.
package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/quota-watch-tui/internal/app"
	"github.com/j-veylop/quota-watch-tui/internal/config"
	"github.com/j-veylop/quota-watch-tui/internal/ui/components"
)

// pageStep is how many rows a page scroll moves.
const pageStep = 10

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ScrollUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("k/↑", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("j/↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state   *app.State
	cfg     *config.Config
	spinner components.LoadingSpinner
	keys    keyMap
	width   int
	height  int

	// offset is the first visible model row; visible is the row count
	// the models table had room for on the last render.
	offset  int
	visible int
}

// New creates a new dashboard model.
func New(state *app.State, cfg *config.Config) *Model {
	return &Model{
		state:   state,
		cfg:     cfg,
		spinner: components.NewSpinner("Fetching account limits..."),
		keys:    defaultKeyMap(),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKeyMsg(msg)

	case app.ServiceEventMsg:
		// The row count may have shrunk with the new snapshot.
		m.offset = m.clampOffset(m.offset)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.ScrollUp):
		m.offset = m.clampOffset(m.offset - 1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.offset = m.clampOffset(m.offset + 1)
	case key.Matches(msg, m.keys.PageUp):
		m.offset = m.clampOffset(m.offset - pageStep)
	case key.Matches(msg, m.keys.PageDown):
		m.offset = m.clampOffset(m.offset + pageStep)
	case key.Matches(msg, m.keys.Top):
		m.offset = 0
	case key.Matches(msg, m.keys.Bottom):
		m.offset = m.clampOffset(m.state.Snapshot().Rows())
	}
}

// clampOffset keeps the scroll position inside the scrollable range.
// The upper bound is zero whenever every row fits the viewport.
func (m *Model) clampOffset(offset int) int {
	maxOffset := max(0, m.state.Snapshot().Rows()-m.visible)
	return min(max(offset, 0), maxOffset)
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// location names the snapshot source shown under the title.
func (m *Model) location() string {
	if m.cfg == nil {
		return config.DefaultURL
	}
	if m.cfg.File != "" {
		return m.cfg.File
	}
	return m.cfg.URL
}

func (m *Model) debug() bool {
	return m.cfg != nil && m.cfg.Debug
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ScrollUp,
		m.keys.ScrollDown,
		m.keys.Bottom,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ScrollUp, m.keys.ScrollDown},
		{m.keys.PageUp, m.keys.PageDown},
		{m.keys.Top, m.keys.Bottom},
	}
}
