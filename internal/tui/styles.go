package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#F2C94C")
	muted  = lipgloss.Color("#9AA0AB")
	danger = lipgloss.Color("#EB5757")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	filterStyle = lipgloss.NewStyle().Foreground(muted)

	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	itemStyle = lipgloss.NewStyle().PaddingLeft(2)

	setStyle = lipgloss.NewStyle().Foreground(muted)

	labelStyle = lipgloss.NewStyle().Foreground(muted).Width(14)

	failedStyle = lipgloss.NewStyle().Foreground(danger)

	statusStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)

	helpStyle = lipgloss.NewStyle().Foreground(muted).Faint(true)

	detailBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	pickerBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)
)
