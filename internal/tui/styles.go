package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorPink     lipgloss.Color = "#f5c2e7"
	colorLavender lipgloss.Color = "#b4befe"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
)

var (
	tabStyle       = lipgloss.NewStyle().Foreground(colorSubtext0).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(colorPink).Bold(true).Underline(true).Padding(0, 1)

	facetStyle       = lipgloss.NewStyle().Foreground(colorSubtext0)
	activeFacetStyle = lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	valueStyle       = lipgloss.NewStyle().Foreground(colorText)
	selectedStyle    = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	cursorStyle      = lipgloss.NewStyle().Reverse(true)
	badgeStyle       = lipgloss.NewStyle().Foreground(colorYellow)

	headerStyle = lipgloss.NewStyle().Foreground(colorPink).Bold(true)
	cellStyle   = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	borderColor = lipgloss.NewStyle().Foreground(colorSurface1)

	totalsStyle = lipgloss.NewStyle().Foreground(colorLavender).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(colorOverlay0)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	helpStyle   = lipgloss.NewStyle().Foreground(colorOverlay0).Italic(true)
)
