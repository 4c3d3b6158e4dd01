package session

import (
	"context"
	"time"

	"hakbang/internal/activity"
	"hakbang/internal/filter"
	"hakbang/internal/goal"
	"hakbang/internal/reps"
	"hakbang/internal/sensor"
)

// Minimum activity required to save a session
const (
	MinSaveDistanceMeters = 100.0
	MinSaveDurationSecs   = 60.0
	MinSaveReps           = 5
)

// Session is the unit of work owned by the engine.
type Session struct {
	ID          string
	Kind        activity.Kind
	StartedAt   time.Time
	EndedAt     time.Time
	PausedTotal time.Duration
	Metrics     activity.Metrics
	Trail       []sensor.Location // accepted, smoothed fixes; append-only while tracking
	GoalID      string
}

// Handle identifies the session returned by Start.
type Handle struct {
	ID        string
	Kind      activity.Kind
	StartedAt time.Time
}

// Snapshot is an immutable view published after every update. Readers
// never observe a partially applied sample.
type Snapshot struct {
	SessionID   string
	Kind        activity.Kind
	State       State
	Metrics     activity.Metrics
	Goal        *goal.Goal
	Quality     filter.Quality
	SensorGap   bool
	TrailLen    int
	Calibration *reps.CalibrationStatus
	UpdatedAt   time.Time
}

// FinalizedSession is what gets handed to the persister on Save.
type FinalizedSession struct {
	ID            string
	Kind          activity.Kind
	StartedAt     time.Time
	EndedAt       time.Time
	PausedTotal   time.Duration
	Metrics       activity.Metrics
	Trail         []sensor.Location
	GoalID        string
	Goal          *goal.Goal
	GoalProgress  float64
	AcceptedFixes int
	RejectedFixes int
	Calibration   *reps.CalibrationProfile
}

// Persister stores finished sessions.
type Persister interface {
	SaveSession(ctx context.Context, s FinalizedSession) error
}

// validateMinimums checks a session has enough activity to be saved
func validateMinimums(k activity.Kind, m activity.Metrics) error {
	if k.DistanceBased() {
		if m.DistanceMeters < MinSaveDistanceMeters {
			return &ValidationError{Reason: "distance under 0.1 km"}
		}
		if m.DurationSeconds < MinSaveDurationSecs {
			return &ValidationError{Reason: "duration under 60 seconds"}
		}
		return nil
	}
	if m.RepCount < MinSaveReps {
		return &ValidationError{Reason: "fewer than 5 repetitions"}
	}
	return nil
}
