package ui

import "github.com/charmbracelet/lipgloss"

const ellipsis = "…"

var (
	greenColor  = lipgloss.Color("#04B575")
	yellowColor = lipgloss.Color("#ECFD65")
	redColor    = lipgloss.Color("#FF5F87")
	blueColor   = lipgloss.Color("#00AAFF")
	grayColor   = lipgloss.Color("#777777")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	helpStyle    = lipgloss.NewStyle().Foreground(grayColor)
	errorStyle   = lipgloss.NewStyle().Foreground(redColor)
	warningStyle = lipgloss.NewStyle().Foreground(yellowColor)
	successStyle = lipgloss.NewStyle().Foreground(greenColor)
)
