package distance

import (
	"math"

	"hakbang/internal/activity"
	"hakbang/internal/sensor"
)

// Accumulator integrates smoothed location fixes into cumulative distance.
//
// Every fix becomes the reference for the next comparison, whether or not
// its increment cleared the jitter floor. A run of small real movements can
// therefore be under-counted; that is the accepted noise floor.
type Accumulator struct {
	minStep float64
	last    *sensor.Location
	total   float64
}

// NewAccumulator creates an Accumulator using the jitter floor for k.
func NewAccumulator(k activity.Kind) *Accumulator {
	return &Accumulator{minStep: activity.MinStepMeters(k)}
}

// Add folds p into the total and returns the distance it contributed.
func (a *Accumulator) Add(p sensor.Location) float64 {
	prev := a.last
	a.last = &p
	if prev == nil {
		return 0
	}

	d := Haversine(prev.Lat, prev.Lng, p.Lat, p.Lng)
	if math.IsNaN(d) || d < a.minStep {
		return 0
	}
	a.total += d
	return d
}

// Total returns the cumulative distance in meters.
func (a *Accumulator) Total() float64 {
	return a.total
}

// MinStep returns the jitter floor in meters.
func (a *Accumulator) MinStep() float64 {
	return a.minStep
}

// Rebase drops the reference point and keeps the total. The next fix
// contributes nothing.
func (a *Accumulator) Rebase() {
	a.last = nil
}

// Reset clears the reference point and the total.
func (a *Accumulator) Reset() {
	a.last = nil
	a.total = 0
}
