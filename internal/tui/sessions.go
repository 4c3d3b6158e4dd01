package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"hakbang/internal/service"
	"hakbang/internal/store"
)

// SessionsModel is the saved sessions list screen model
type SessionsModel struct {
	history  *service.HistoryService
	units    Units
	sessions []store.Session
	cursor   int
	offset   int
	total    int
	pageSize int
	loading  bool
	err      error
}

// NewSessionsModel creates a new sessions model
func NewSessionsModel(hs *service.HistoryService, units Units) SessionsModel {
	return SessionsModel{
		history:  hs,
		units:    units,
		pageSize: 15,
		loading:  true,
	}
}

// Init initializes the sessions screen
func (m SessionsModel) Init() tea.Cmd {
	return m.loadPage
}

type sessionsLoadedMsg struct {
	sessions []store.Session
	total    int
	err      error
}

// OpenSessionDetailMsg asks the app to show one session
type OpenSessionDetailMsg struct {
	SessionID string
}

type sessionDeletedMsg struct {
	id  string
	err error
}

func (m SessionsModel) loadPage() tea.Msg {
	sessions, total, err := m.history.List(m.pageSize, m.offset)
	return sessionsLoadedMsg{sessions: sessions, total: total, err: err}
}

// Update handles messages
func (m SessionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.sessions = msg.sessions
		m.total = msg.total
		if m.cursor >= len(m.sessions) {
			m.cursor = max(0, len(m.sessions)-1)
		}

	case sessionDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loading = true
		return m, m.loadPage

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				// Go to previous page
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
				m.loading = true
				return m, m.loadPage
			}
		case "down", "j":
			if m.cursor < len(m.sessions)-1 {
				m.cursor++
			} else if m.offset+len(m.sessions) < m.total {
				// Go to next page
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "r":
			m.loading = true
			return m, m.loadPage
		case "x":
			if id, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return sessionDeletedMsg{id: id, err: m.history.Delete(id)}
				}
			}
		case "enter":
			if id, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return OpenSessionDetailMsg{SessionID: id}
				}
			}
		}
	}
	return m, nil
}

func (m SessionsModel) selected() (string, bool) {
	if len(m.sessions) == 0 || m.cursor >= len(m.sessions) {
		return "", false
	}
	return m.sessions[m.cursor].ID, true
}

// View renders the sessions list
func (m SessionsModel) View() string {
	if m.loading {
		return "\n  Loading sessions..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.sessions) == 0 {
		return "\n  No saved sessions yet. Record one with 'hakbang track'."
	}

	var sections []string

	// Title with pagination info
	title := cardTitleStyle.Render(fmt.Sprintf("Sessions (%d-%d of %d)", m.offset+1, m.offset+len(m.sessions), m.total))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("  %-14s  %-16s  %9s  %8s  %8s  %6s",
		"When", "Activity", "Distance", "Time", "Pace", "Reps"))
	sections = append(sections, header)

	for i, s := range m.sessions {
		dist, pace, count := "-", "-", "-"
		if s.Kind.DistanceBased() {
			dist = m.units.FormatDistance(s.Metrics.DistanceMeters)
			pace = m.units.FormatPace(s.Metrics.PaceSecondsPerKm)
		} else {
			count = humanize.Comma(int64(s.Metrics.RepCount))
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-14s  %-16s  %9s  %8s  %8s  %6s",
			cursor,
			humanize.Time(s.StartedAt),
			s.Kind.String(),
			dist,
			formatDuration(s.Metrics.DurationSeconds),
			pace,
			count,
		)

		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: details  x: delete  j/k: navigate  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
