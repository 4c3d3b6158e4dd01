package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"hakbang/internal/activity"
	"hakbang/internal/goal"
	"hakbang/internal/reps"
	"hakbang/internal/sensor"
	"hakbang/internal/service"
	"hakbang/internal/session"
)

const (
	refreshInterval = 250 * time.Millisecond
	chartPoints     = 60
)

// TrackModel is the live session screen. It drives a replay in the
// background and polls the engine snapshot for display.
type TrackModel struct {
	replay  *service.ReplayService
	kind    activity.Kind
	goal    *goal.Goal
	samples []sensor.Sample
	units   Units

	ctx    context.Context
	cancel context.CancelFunc

	snap     session.Snapshot
	lastSeen time.Time
	paces    []float64
	bar      progress.Model

	result *service.ReplayResult
	saved  *session.FinalizedSession
	status string
	err    error
}

// NewTrackModel creates a track screen replaying samples as a session of kind k
func NewTrackModel(replay *service.ReplayService, k activity.Kind, g *goal.Goal, samples []sensor.Sample, units Units) TrackModel {
	ctx, cancel := context.WithCancel(context.Background())
	return TrackModel{
		replay:  replay,
		kind:    k,
		goal:    g,
		samples: samples,
		units:   units,
		ctx:     ctx,
		cancel:  cancel,
		snap:    replay.Engine().CurrentMetrics(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

type refreshMsg time.Time

type replayDoneMsg struct {
	result *service.ReplayResult
	err    error
}

type savedMsg struct {
	fs  session.FinalizedSession
	err error
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Init starts the replay and the refresh loop
func (m TrackModel) Init() tea.Cmd {
	return tea.Batch(m.runReplay, refresh())
}

func (m TrackModel) runReplay() tea.Msg {
	result, err := m.replay.Run(m.ctx, m.kind, m.goal, m.samples, nil)
	return replayDoneMsg{result: result, err: err}
}

func (m TrackModel) save() tea.Msg {
	fs, err := m.replay.Engine().Save(m.ctx)
	return savedMsg{fs: fs, err: err}
}

// Update handles messages
func (m TrackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	engine := m.replay.Engine()

	switch msg := msg.(type) {
	case refreshMsg:
		m.observe(engine.CurrentMetrics())
		return m, refresh()

	case replayDoneMsg:
		m.result = msg.result
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		m.observe(engine.CurrentMetrics())
		if m.snap.State == session.StateEnded {
			m.status = "Session ended. w: save  d: discard"
		}

	case savedMsg:
		if msg.err != nil {
			m.status = ""
			m.err = msg.err
			break
		}
		m.saved = &msg.fs
		m.err = nil
		m.status = "Session saved"
		m.observe(engine.CurrentMetrics())

	case tea.WindowSizeMsg:
		m.bar.Width = min(60, max(20, msg.Width-20))

	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "p":
			switch m.snap.State {
			case session.StateTracking:
				m.err = engine.Pause()
			case session.StatePaused:
				m.err = engine.Resume()
			}
		case "s":
			m.err = engine.Stop()
			if m.err == nil {
				m.status = "Session ended. w: save  d: discard"
			}
		case "w":
			return m, m.save
		case "d":
			engine.Discard()
			m.status = "Session discarded"
		case "c":
			m.err = engine.ResetCalibration()
			if m.err == nil {
				m.status = "Calibration restarted"
			}
		}
		m.observe(engine.CurrentMetrics())
	}
	return m, nil
}

// observe records a snapshot and extends the pace series when it is new
func (m *TrackModel) observe(s session.Snapshot) {
	m.snap = s
	if !s.UpdatedAt.After(m.lastSeen) {
		return
	}
	m.lastSeen = s.UpdatedAt
	if s.State == session.StateTracking && s.Kind.DistanceBased() && s.Metrics.PaceSecondsPerKm > 0 {
		m.paces = append(m.paces, s.Metrics.PaceSecondsPerKm)
		if len(m.paces) > chartPoints {
			m.paces = m.paces[len(m.paces)-chartPoints:]
		}
	}
}

// Stop cancels a running replay
func (m TrackModel) Stop() {
	m.cancel()
}

// Saved returns the saved session, if any
func (m TrackModel) Saved() *session.FinalizedSession {
	return m.saved
}

// View renders the track screen
func (m TrackModel) View() string {
	var sections []string

	title := fmt.Sprintf("%s  ·  %s", strings.ToUpper(string(m.kind.Name)), renderState(m.snap.State))
	sections = append(sections, cardTitleStyle.Render(title))
	sections = append(sections, cardStyle.Render(m.renderMetrics()))

	if m.snap.Goal != nil {
		sections = append(sections, m.renderGoal())
	}
	if m.snap.Calibration != nil {
		sections = append(sections, m.renderCalibration(*m.snap.Calibration))
	}
	if m.kind.DistanceBased() && len(m.paces) > 2 {
		sections = append(sections, m.renderPaceChart())
	}
	if m.snap.SensorGap {
		sections = append(sections, warningStyle.Render("  No sensor samples received recently"))
	}
	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	} else if m.status != "" {
		sections = append(sections, successStyle.Render("  "+m.status))
	}

	sections = append(sections, statusStyle.Render(m.renderKeys()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m TrackModel) renderMetrics() string {
	met := m.snap.Metrics
	lines := []string{RenderMetric("Duration", formatDuration(met.DurationSeconds))}

	if m.kind.DistanceBased() {
		lines = append(lines,
			RenderMetric("Distance", m.units.FormatDistance(met.DistanceMeters)),
			RenderMetric("Pace", m.units.FormatPaceWithUnit(met.PaceSecondsPerKm)),
			RenderMetric("Speed", m.units.FormatSpeed(met.AvgSpeedKph)),
			RenderMetric("GPS", renderQuality(m.snap.Quality)),
		)
	} else {
		lines = append(lines, RenderMetric("Reps", fmt.Sprintf("%d", met.RepCount)))
	}
	lines = append(lines, RenderMetric("Calories", fmt.Sprintf("%.0f kcal", met.Calories)))

	if m.result != nil {
		lines = append(lines, RenderMetric("Samples", fmt.Sprintf("%d/%d", m.result.Samples, len(m.samples))))
	}
	return strings.Join(lines, "\n")
}

func (m TrackModel) renderGoal() string {
	g := m.snap.Goal
	pct := goal.Progress(m.snap.Metrics, *g)
	label := fmt.Sprintf("  Goal %v %s", g.Target, g.Unit)
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		sectionTitleStyle.Render(label),
		"  "+m.bar.ViewAs(pct),
	)
}

func (m TrackModel) renderCalibration(c reps.CalibrationStatus) string {
	var lines []string
	lines = append(lines, "", sectionTitleStyle.Render("  Camera"))

	switch {
	case c.Phase == reps.PhaseCalibrating:
		remaining := c.Remaining
		if remaining < 0 {
			remaining = 0
		}
		lines = append(lines, fmt.Sprintf("  Calibrating: hold still and blink (%.1fs, %d samples)", remaining.Seconds(), c.Samples))
		if !c.Level {
			lines = append(lines, warningStyle.Render("  Lay the phone flat"))
		}
		if c.LastFailure != nil {
			lines = append(lines, warningStyle.Render("  "+c.LastFailure.String()))
		}
	case c.Suspended:
		lines = append(lines, warningStyle.Render("  Paused: phone is not level"))
	default:
		lines = append(lines, "  Position: "+renderPhase(c.Phase))
	}
	return strings.Join(lines, "\n")
}

func (m TrackModel) renderPaceChart() string {
	data := m.units.PaceMinutes(m.paces)
	chart := asciigraph.Plot(data,
		asciigraph.Height(6),
		asciigraph.Width(50),
		asciigraph.Caption("Pace ("+m.units.PaceLabel()+")"),
	)
	return "\n" + chart
}

func (m TrackModel) renderKeys() string {
	var keys []string
	switch m.snap.State {
	case session.StateTracking:
		keys = append(keys, RenderKeyHelp("p", "pause"), RenderKeyHelp("s", "stop"), RenderKeyHelp("d", "discard"))
		if m.kind.Strategy == activity.StrategyProximity {
			keys = append(keys, RenderKeyHelp("c", "recalibrate"))
		}
	case session.StatePaused:
		keys = append(keys, RenderKeyHelp("p", "resume"), RenderKeyHelp("s", "stop"), RenderKeyHelp("d", "discard"))
	case session.StateEnded:
		keys = append(keys, RenderKeyHelp("w", "save"), RenderKeyHelp("d", "discard"))
	}
	keys = append(keys, RenderKeyHelp("q", "quit"))
	return "  " + strings.Join(keys, "  ")
}
