package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hakbang/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenTrack Screen = iota
	ScreenSessions
	ScreenDetail
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	track    *TrackModel
	sessions SessionsModel
	detail   SessionDetailModel
	help     HelpModel

	history *service.HistoryService
	units   Units

	// Window dimensions
	width  int
	height int
}

// NewApp creates the app. track may be nil, in which case the app opens
// on the saved sessions list.
func NewApp(history *service.HistoryService, units Units, track *TrackModel) *App {
	a := &App{
		screen:   ScreenSessions,
		track:    track,
		sessions: NewSessionsModel(history, units),
		help:     NewHelpModel(),
		history:  history,
		units:    units,
	}
	if track != nil {
		a.screen = ScreenTrack
	}
	return a
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	if a.track != nil {
		return tea.Batch(a.track.Init(), a.sessions.Init())
	}
	return a.sessions.Init()
}

// Track returns the live session model, or nil
func (a *App) Track() *TrackModel {
	return a.track
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if a.track != nil {
				a.track.Stop()
			}
			return a, tea.Quit
		case "1":
			if a.track != nil {
				a.screen = ScreenTrack
				return a, nil
			}
		case "2":
			a.screen = ScreenSessions
			return a, a.sessions.Init()
		case "?":
			a.prevScreen = a.screen
			a.screen = ScreenHelp
			return a, nil
		case "esc":
			switch a.screen {
			case ScreenHelp:
				a.screen = a.prevScreen
				return a, nil
			case ScreenDetail:
				a.screen = ScreenSessions
				return a, nil
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case OpenSessionDetailMsg:
		a.screen = ScreenDetail
		a.detail = NewSessionDetailModel(a.history, a.units, msg.SessionID, a.width, a.height)
		return a, a.detail.Init()

	case savedMsg:
		// refresh the list so the new session shows up
		if a.track != nil {
			var m tea.Model
			m, _ = a.track.Update(msg)
			tm := m.(TrackModel)
			a.track = &tm
		}
		return a, a.sessions.Init()
	}

	// Messages owned by the live session keep flowing whatever screen is shown
	switch msg.(type) {
	case refreshMsg, replayDoneMsg:
		if a.track != nil {
			m, cmd := a.track.Update(msg)
			tm := m.(TrackModel)
			a.track = &tm
			return a, cmd
		}
		return a, nil
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenTrack:
		if a.track != nil {
			var m tea.Model
			m, cmd = a.track.Update(msg)
			tm := m.(TrackModel)
			a.track = &tm
		}
	case ScreenSessions:
		var m tea.Model
		m, cmd = a.sessions.Update(msg)
		a.sessions = m.(SessionsModel)
	case ScreenDetail:
		var m tea.Model
		m, cmd = a.detail.Update(msg)
		a.detail = m.(SessionDetailModel)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := headerStyle.Render("hakbang")
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenTrack:
		if a.track != nil {
			content = a.track.View()
		}
	case ScreenSessions:
		content = a.sessions.View()
	case ScreenDetail:
		content = a.detail.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Live", ScreenTrack},
		{"2", "Sessions", ScreenSessions},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for _, item := range items {
		if item.screen == ScreenTrack && a.track == nil {
			continue
		}
		if nav != "" {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		active := a.screen == item.screen || (item.screen == ScreenSessions && a.screen == ScreenDetail)
		if active {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}
