package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#38BDF8")
	colorMuted  = lipgloss.Color("#64748B")
	colorGood   = lipgloss.Color("#22C55E")
	colorWarn   = lipgloss.Color("#F59E0B")
	colorBad    = lipgloss.Color("#EF4444")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	activeTab   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0F172A")).Background(colorAccent).Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1)
	focusStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(colorBad)
	okStyle     = lipgloss.NewStyle().Foreground(colorGood)
)

// levelStyle colours an alert level or wellness band.
func levelStyle(level int) lipgloss.Style {
	switch level {
	case 3:
		return lipgloss.NewStyle().Foreground(colorBad).Bold(true)
	case 2:
		return lipgloss.NewStyle().Foreground(colorWarn)
	case 1:
		return lipgloss.NewStyle().Foreground(colorAccent)
	}
	return mutedStyle
}

func wellnessStyle(score int) lipgloss.Style {
	switch {
	case score >= 75:
		return okStyle
	case score >= 50:
		return lipgloss.NewStyle().Foreground(colorAccent)
	case score >= 30:
		return lipgloss.NewStyle().Foreground(colorWarn)
	}
	return errorStyle
}
