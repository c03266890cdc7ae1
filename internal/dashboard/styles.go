package dashboard

import "github.com/charmbracelet/lipgloss"

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorCyan      = lipgloss.Color("#61DAFB")
	colorYellow    = lipgloss.Color("#F0AD4E")
	colorRed       = lipgloss.Color("#FF6B6B")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			MarginTop(1).
			MarginBottom(1)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 2).
			MarginBottom(1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	successStyle = lipgloss.NewStyle().Foreground(colorCyan)
	loadingStyle = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorLightGray)

	toolStyle = lipgloss.NewStyle().
			Width(18).
			Align(lipgloss.Center)

	toolDescStyle = lipgloss.NewStyle().Foreground(colorGray)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			MarginTop(1)
)
