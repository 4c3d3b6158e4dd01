package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Keyboard Shortcuts"))

	sections = append(sections, m.renderSection("Navigation", []keyHelp{
		{"1", "Live session"},
		{"2", "Saved sessions"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	}))

	sections = append(sections, m.renderSection("Live session", []keyHelp{
		{"p", "Pause / resume"},
		{"s", "Stop"},
		{"w", "Save an ended session"},
		{"d", "Discard"},
		{"c", "Restart camera calibration"},
	}))

	sections = append(sections, m.renderSection("Saved sessions", []keyHelp{
		{"j / down", "Move cursor down"},
		{"k / up", "Move cursor up"},
		{"enter", "Show details"},
		{"x", "Delete session"},
		{"r", "Refresh list"},
	}))

	sections = append(sections, m.renderCalibrationHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionTitleStyle.Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderCalibrationHelp() string {
	lines := []string{
		"",
		sectionTitleStyle.Render("Camera rep counting"),
		"",
		helpDescStyle.Render("  Lay the phone flat on the floor, face up, below your face."),
		helpDescStyle.Render("  Hold the up position for three seconds and blink once."),
		helpDescStyle.Render("  Counting pauses whenever the phone is tilted."),
	}
	return strings.Join(lines, "\n")
}
