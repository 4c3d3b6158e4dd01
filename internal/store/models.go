package store

import (
	"time"

	"hakbang/internal/activity"
	"hakbang/internal/goal"
	"hakbang/internal/reps"
	"hakbang/internal/sensor"
)

// Session is a saved session as stored in the database
type Session struct {
	ID            string
	Kind          activity.Kind
	StartedAt     time.Time
	EndedAt       time.Time
	PausedSeconds float64
	Metrics       activity.Metrics
	Goal          *goal.Goal
	GoalProgress  *float64
	AcceptedFixes int
	RejectedFixes int
	Calibration   *reps.CalibrationProfile
	CreatedAt     time.Time

	// Trail is only populated by GetSession
	Trail []sensor.Location
}

// AcceptedRatio is the share of location fixes that passed the filter
func (s Session) AcceptedRatio() float64 {
	total := s.AcceptedFixes + s.RejectedFixes
	if total == 0 {
		return 0
	}
	return float64(s.AcceptedFixes) / float64(total)
}

// PersonalRecord is the best value seen for one category, e.g. "run_longest"
type PersonalRecord struct {
	ID         int64
	Category   string
	SessionID  string
	Value      float64
	AchievedAt time.Time
}
