// Package goal projects session metrics onto an externally defined goal.
package goal

import (
	"fmt"
	"math"

	"hakbang/internal/activity"
)

// Unit is the measure a goal is expressed in
type Unit string

const (
	UnitDistanceKm      Unit = "km"
	UnitDurationMinutes Unit = "minutes"
	UnitReps            Unit = "reps"
	UnitPace            Unit = "pace" // seconds per km, lower is better
	UnitCalories        Unit = "calories"
)

// Goal is supplied by the caller and never modified here.
type Goal struct {
	ID     string
	Unit   Unit
	Target float64
}

// Validate checks the goal can be projected.
func (g Goal) Validate() error {
	switch g.Unit {
	case UnitDistanceKm, UnitDurationMinutes, UnitReps, UnitPace, UnitCalories:
	default:
		return fmt.Errorf("unknown goal unit %q", g.Unit)
	}
	if g.Target <= 0 || math.IsNaN(g.Target) || math.IsInf(g.Target, 0) {
		return fmt.Errorf("goal target must be positive, got %v", g.Target)
	}
	return nil
}

// Progress maps m onto g as a value in [0, 1]. It has no side effects.
func Progress(m activity.Metrics, g Goal) float64 {
	if g.Target <= 0 {
		return 0
	}

	var p float64
	switch g.Unit {
	case UnitDistanceKm:
		p = m.DistanceKm() / g.Target
	case UnitDurationMinutes:
		p = (m.DurationSeconds / 60) / g.Target
	case UnitReps:
		p = float64(m.RepCount) / g.Target
	case UnitPace:
		p = paceProgress(m.PaceSecondsPerKm, g.Target)
	case UnitCalories:
		p = m.Calories / g.Target
	default:
		return 0
	}
	return clamp(p)
}

// paceProgress is full once the pace is at or under target and decays
// linearly above it. A non-positive pace means no data yet.
func paceProgress(pace, target float64) float64 {
	if pace <= 0 {
		return 0
	}
	if pace <= target {
		return 1
	}
	return math.Max(0, 1-(pace-target)/target)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
