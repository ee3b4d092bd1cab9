package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#6D28D9")
	colorAccent  = lipgloss.Color("#F59E0B")
	colorMuted   = lipgloss.Color("#6B7280")
	colorText    = lipgloss.Color("#F9FAFB")
	colorSuccess = lipgloss.Color("#10B981")
)

// Styles groups the lipgloss styles of the terminal UI.
type Styles struct {
	Header    lipgloss.Style
	Session   lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Title     lipgloss.Style
	Item      lipgloss.Style
	Muted     lipgloss.Style
	Status    lipgloss.Style
	Card      lipgloss.Style
	Help      lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 1),
		Session: lipgloss.NewStyle().Foreground(colorMuted),
		Tab: lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 2),
		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Underline(true).
			Padding(0, 2),
		Title:  lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).MarginBottom(1),
		Item:   lipgloss.NewStyle().PaddingLeft(2),
		Muted:  lipgloss.NewStyle().Foreground(colorMuted),
		Status: lipgloss.NewStyle().Foreground(colorSuccess),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1),
		Help: lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1),
	}
}
