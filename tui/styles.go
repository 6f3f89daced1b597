package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary     = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6c7a89")
	border      = lipgloss.Color("#2a3850")
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")
)

type Styles struct {
	Header    lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Sidebar   lipgloss.Style
	Room      lipgloss.Style
	Selected  lipgloss.Style
	Sender    lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Modal     lipgloss.Style
	Title     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(primary),
		Tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(muted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true).Foreground(primary),
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(border).
			PaddingRight(1).
			Width(20),
		Room:     lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(primary),
		Sender:   lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(muted),
		Error:    lipgloss.NewStyle().Foreground(destructive),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(warning).
			Padding(1, 2),
		Title: lipgloss.NewStyle().Bold(true).Foreground(warning),
	}
}
