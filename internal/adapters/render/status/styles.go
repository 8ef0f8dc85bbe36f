package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	section  lipgloss.Style
	heading  lipgloss.Style
	item     lipgloss.Style
	meta     lipgloss.Style
	live     lipgloss.Style
	pending  lipgloss.Style
	inactive lipgloss.Style
	empty    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		section:  lipgloss.NewStyle().MarginTop(1),
		heading:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		item:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meta:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		live:     lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		pending:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		inactive: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		empty:    lipgloss.NewStyle().Faint(true),
	}
}
