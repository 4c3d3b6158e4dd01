package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"hakbang/internal/analysis"
	"hakbang/internal/service"
)

// SessionDetailModel is the session detail screen model
type SessionDetailModel struct {
	history   *service.HistoryService
	units     Units
	sessionID string
	detail    *service.SessionDetail
	viewport  viewport.Model
	loading   bool
	err       error
	ready     bool
}

// NewSessionDetailModel creates a new session detail model
func NewSessionDetailModel(hs *service.HistoryService, units Units, sessionID string, width, height int) SessionDetailModel {
	m := SessionDetailModel{
		history:   hs,
		units:     units,
		sessionID: sessionID,
		loading:   true,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the session detail screen
func (m SessionDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type sessionDetailLoadedMsg struct {
	detail *service.SessionDetail
	err    error
}

func (m SessionDetailModel) loadDetail() tea.Msg {
	detail, err := m.history.Detail(m.sessionID)
	return sessionDetailLoadedMsg{detail: detail, err: err}
}

// Update handles messages
func (m SessionDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.detail = msg.detail
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadDetail
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the session detail screen
func (m SessionDetailModel) View() string {
	if m.loading {
		return "\n  Loading session..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back to list  j/k or arrows: scroll  r: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m SessionDetailModel) renderContent() string {
	if m.detail == nil {
		return "No data"
	}
	return RenderSessionDetail(m.detail, m.units)
}

// RenderSessionDetail renders a saved session with its analysis. It is
// shared by the detail screen and the show command.
func RenderSessionDetail(d *service.SessionDetail, units Units) string {
	s := d.Session
	var sections []string

	title := fmt.Sprintf("%s on %s", s.Kind.String(), s.StartedAt.Local().Format("Mon Jan 2 2006 15:04"))
	sections = append(sections, cardTitleStyle.Render(title))

	lines := []string{RenderMetric("Duration", formatDuration(s.Metrics.DurationSeconds))}
	if s.PausedSeconds > 0 {
		lines = append(lines, RenderMetric("Paused", formatDuration(s.PausedSeconds)))
	}
	if s.Kind.DistanceBased() {
		lines = append(lines,
			RenderMetric("Distance", units.FormatDistance(s.Metrics.DistanceMeters)),
			RenderMetric("Pace", units.FormatPaceWithUnit(s.Metrics.PaceSecondsPerKm)),
			RenderMetric("Speed", units.FormatSpeed(s.Metrics.AvgSpeedKph)),
			RenderMetric("GPS signal", signalLabel(s.AcceptedFixes, s.RejectedFixes)),
		)
		if d.Summary.MovingRatio > 0 {
			lines = append(lines, RenderMetric("Moving", fmt.Sprintf("%.0f%%", d.Summary.MovingRatio*100)))
		}
	} else {
		lines = append(lines, RenderMetric("Reps", humanize.Comma(int64(s.Metrics.RepCount))))
	}
	lines = append(lines, RenderMetric("Calories", fmt.Sprintf("%.0f kcal", s.Metrics.Calories)))
	if s.Goal != nil && s.GoalProgress != nil {
		lines = append(lines, RenderMetric("Goal", fmt.Sprintf("%v %s (%.0f%%)", s.Goal.Target, s.Goal.Unit, *s.GoalProgress*100)))
	}
	if s.Calibration != nil {
		lines = append(lines, RenderMetric("Baseline", fmt.Sprintf("%.0f px²", s.Calibration.BaselineArea)))
	}
	sections = append(sections, cardStyle.Render(strings.Join(lines, "\n")))

	if len(d.Summary.Splits) > 0 {
		sections = append(sections, renderSplits(d.Summary.Splits, units))
	}
	if len(d.Summary.BestEfforts) > 0 {
		sections = append(sections, renderEfforts(d.Summary.BestEfforts))
	}
	if len(d.Records) > 0 {
		var rec []string
		rec = append(rec, "", sectionTitleStyle.Render("Personal records"))
		for _, r := range d.Records {
			rec = append(rec, "  "+successStyle.Render("★ ")+r.Category)
		}
		sections = append(sections, strings.Join(rec, "\n"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderSplits(splits []analysis.Split, units Units) string {
	var lines []string
	lines = append(lines, "", sectionTitleStyle.Render("Splits (km)"))

	paces := make([]float64, 0, len(splits))
	for _, sp := range splits {
		lines = append(lines, fmt.Sprintf("  %2d  %6.0f m  %8s  %s",
			sp.Index, sp.DistanceMeters, formatDuration(sp.DurationSeconds), units.FormatPaceWithUnit(sp.PaceSecondsPerKm)))
		paces = append(paces, sp.PaceSecondsPerKm)
	}

	if len(paces) > 2 {
		lines = append(lines, "", asciigraph.Plot(units.PaceMinutes(paces),
			asciigraph.Height(6),
			asciigraph.Width(40),
			asciigraph.Caption("Split pace ("+units.PaceLabel()+")"),
		))
	}
	return strings.Join(lines, "\n")
}

func renderEfforts(efforts map[float64]analysis.BestEffort) string {
	distances := make([]float64, 0, len(efforts))
	for d := range efforts {
		distances = append(distances, d)
	}
	sort.Float64s(distances)

	var lines []string
	lines = append(lines, "", sectionTitleStyle.Render("Best efforts"))
	for _, d := range distances {
		e := efforts[d]
		lines = append(lines, fmt.Sprintf("  %-6s %8s", analysis.EffortLabels[d], formatDuration(e.DurationSeconds)))
	}
	return strings.Join(lines, "\n")
}

// signalLabel describes the share of fixes the filter accepted
func signalLabel(accepted, rejected int) string {
	if accepted+rejected == 0 {
		return "-"
	}
	return analysis.SignalDescription(float64(accepted) / float64(accepted+rejected))
}
