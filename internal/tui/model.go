// Package tui is the terminal dashboard: a header with the session id, a tab
// bar and the active panel.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options configures the dashboard model.
type Options struct {
	// StartDir is where the file picker opens. Empty means the working dir.
	StartDir string

	// Default is the panel shown first.
	Default PanelID
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	sessionID string
	styles    Styles
	tabs      *Controller
	dashboard *Dashboard
	bar       progress.Model
	width     int
	height    int
}

func New(sessionID string, opts Options) (*Model, error) {
	m := &Model{
		sessionID: sessionID,
		styles:    DefaultStyles(),
		dashboard: NewDashboard(opts.StartDir),
		bar:       newProgressBar(),
	}

	def := opts.Default
	if def == "" {
		def = PanelDashboard
	}
	tabs, err := NewController(def,
		Panel{ID: PanelDashboard, Label: "Dashboard", Render: func() string { return m.dashboard.View(m.styles) }},
		Panel{ID: PanelMentorship, Label: "Mentorship", Render: func() string { return renderMentorship(m.styles, mentorSessions) }},
		Panel{ID: PanelDistinctions, Label: "Distinctions", Render: func() string { return renderDistinctions(m.styles, m.bar, achievements) }},
		Panel{ID: PanelResources, Label: "Resources", Render: func() string { return renderResources(m.styles, resourceLinks) }},
	)
	if err != nil {
		return nil, err
	}
	m.tabs = tabs
	return m, nil
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Active() PanelID { return m.tabs.Active() }

func (m *Model) Dashboard() *Dashboard { return m.dashboard }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.dashboard.SetHeight(msg.Height - 12)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// directory listings and cursor blinks
	if m.tabs.Active() == PanelDashboard {
		return m, m.dashboard.Update(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.tabs.Active() == PanelDashboard && m.dashboard.Capturing() {
		if key == "esc" {
			m.dashboard.Cancel()
			return m, nil
		}
		return m, m.dashboard.Update(msg)
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "1", "2", "3", "4":
		m.navigate(func() { _ = m.tabs.SelectIndex(int(key[0] - '1')) })
	case "tab", "right", "l":
		m.navigate(m.tabs.Next)
	case "shift+tab", "left", "h":
		m.navigate(m.tabs.Prev)
	case "/":
		if m.tabs.Active() == PanelDashboard {
			return m, m.dashboard.FocusSearch()
		}
	case "f":
		if m.tabs.Active() == PanelDashboard {
			return m, m.dashboard.OpenPicker()
		}
	}
	return m, nil
}

// navigate applies a tab change. Leaving the dashboard drops its scratch
// state.
func (m *Model) navigate(change func()) {
	before := m.tabs.Active()
	change()
	if before == PanelDashboard && m.tabs.Active() != PanelDashboard {
		m.dashboard.Reset()
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.tabBar())
	b.WriteString("\n\n")
	b.WriteString(m.tabs.Render())
	b.WriteString(m.styles.Help.Render(m.help()))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) header() string {
	title := m.styles.Header.Render("Prima Scholar")
	session := m.styles.Session.Render("session " + m.sessionID)
	return lipgloss.JoinHorizontal(lipgloss.Center, title, " ", session)
}

func (m *Model) tabBar() string {
	triggers := m.tabs.Triggers()
	parts := make([]string, len(triggers))
	for i, t := range triggers {
		label := string(rune('1'+i)) + " " + t.Label
		if t.Active {
			parts[i] = m.styles.ActiveTab.Render(label)
		} else {
			parts[i] = m.styles.Tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) help() string {
	switch {
	case m.dashboard.Searching():
		return "enter search • esc cancel"
	case m.dashboard.Picking():
		return "enter select • esc close"
	case m.tabs.Active() == PanelDashboard:
		return "1-4/tab switch • / search • f pick file • q quit"
	default:
		return "1-4/tab switch • q quit"
	}
}

// Run starts the dashboard on the terminal and blocks until it exits.
func Run(sessionID string, opts Options) error {
	m, err := New(sessionID, opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
