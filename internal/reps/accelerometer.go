package reps

import (
	"hakbang/internal/activity"
	"hakbang/internal/sensor"
)

// Accelerometer counts a rep each time the acceleration magnitude rises
// above the trigger and then falls back below the release level.
type Accelerometer struct {
	trigger   float64
	release   float64
	crossedUp bool
	count     int
}

// NewAccelerometer creates a detector armed at trigger g.
func NewAccelerometer(trigger float64) *Accelerometer {
	return &Accelerometer{trigger: trigger, release: activity.ReleaseLevel}
}

func (a *Accelerometer) Process(s sensor.Sample) (Event, bool) {
	m, ok := s.(sensor.Motion)
	if !ok {
		return Event{}, false
	}

	mag := m.Magnitude()
	switch {
	case !a.crossedUp && mag > a.trigger:
		a.crossedUp = true
	case a.crossedUp && mag < a.release:
		a.crossedUp = false
		a.count++
		return Event{Count: a.count, Time: m.Time}, true
	}
	return Event{}, false
}

func (a *Accelerometer) Count() int { return a.count }

func (a *Accelerometer) Reset() {
	a.crossedUp = false
	a.count = 0
}

// Armed reports whether the magnitude is above the trigger awaiting release.
func (a *Accelerometer) Armed() bool { return a.crossedUp }
