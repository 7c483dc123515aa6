package cmd

import "github.com/charmbracelet/lipgloss"

var (
	summaryTitle = lipgloss.NewStyle().Bold(true)
	okText       = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnText     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errText      = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)
