package tui

import (
	"github.com/charmbracelet/lipgloss"

	"hakbang/internal/filter"
	"hakbang/internal/reps"
	"hakbang/internal/session"
)

// Palette
var (
	accentColor  = lipgloss.Color("#0EA5A4") // teal
	goodColor    = lipgloss.Color("#22C55E")
	cautionColor = lipgloss.Color("#EAB308")
	alertColor   = lipgloss.Color("#F43F5E")
	dimColor     = lipgloss.Color("#71717A")
	brightColor  = lipgloss.Color("#FAFAFA")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(brightColor).
			Background(accentColor).
			Padding(0, 1).
			MarginBottom(1)

	navStyle         = lipgloss.NewStyle().Foreground(dimColor).MarginBottom(1)
	navActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Underline(true)
	navInactiveStyle = lipgloss.NewStyle().Foreground(dimColor)

	// Live metric card
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accentColor).
			Padding(0, 2)

	cardTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1)
	sectionTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(brightColor)

	metricLabelStyle = lipgloss.NewStyle().Foreground(dimColor).Width(12)
	metricValueStyle = lipgloss.NewStyle().Bold(true).Foreground(brightColor)

	// Session list
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(dimColor).
				Padding(0, 1)
	tableRowStyle      = lipgloss.NewStyle().Padding(0, 1)
	tableSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(brightColor).
				Background(accentColor).
				Padding(0, 1)

	statusStyle  = lipgloss.NewStyle().Foreground(dimColor).MarginTop(1)
	errorStyle   = lipgloss.NewStyle().Foreground(alertColor)
	successStyle = lipgloss.NewStyle().Foreground(goodColor)
	warningStyle = lipgloss.NewStyle().Foreground(cautionColor)

	helpKeyStyle  = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(dimColor)
)

// qualityColors shades the GPS signal class
var qualityColors = map[filter.Quality]lipgloss.Color{
	filter.QualityExcellent: goodColor,
	filter.QualityGood:      goodColor,
	filter.QualityFair:      cautionColor,
	filter.QualityPoor:      alertColor,
}

// RenderMetric renders a label and value on one line
func RenderMetric(label, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		metricLabelStyle.Render(label),
		metricValueStyle.Render(value),
	)
}

// RenderKeyHelp renders a key binding help item
func RenderKeyHelp(key, desc string) string {
	return helpKeyStyle.Render(key) + " " + helpDescStyle.Render(desc)
}

// renderQuality colors a signal class
func renderQuality(q filter.Quality) string {
	return lipgloss.NewStyle().Bold(true).Foreground(qualityColors[q]).Render(q.String())
}

// renderState colors a lifecycle state
func renderState(s session.State) string {
	switch s {
	case session.StateTracking, session.StateSaved:
		return successStyle.Render(s.String())
	case session.StatePaused, session.StateEnded:
		return warningStyle.Render(s.String())
	case session.StateDiscarded:
		return errorStyle.Render(s.String())
	}
	return helpDescStyle.Render(s.String())
}

// renderPhase shows the proximity position, highlighted while down
func renderPhase(p reps.Phase) string {
	if p == reps.PhaseDown {
		return metricValueStyle.Foreground(accentColor).Render(p.String())
	}
	return metricValueStyle.Render(p.String())
}
