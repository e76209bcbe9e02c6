package ui

import "github.com/charmbracelet/lipgloss"

// theme holds the styles the views use.
type theme struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Box      lipgloss.Style
	Label    lipgloss.Style
}

func defaultTheme() theme {
	return theme{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8F8F2")).Background(lipgloss.Color("#44475A")).Padding(0, 1),
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8F8F2")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
		Box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6272A4")).Padding(0, 1),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")),
	}
}
