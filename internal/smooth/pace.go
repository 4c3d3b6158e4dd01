package smooth

import "hakbang/internal/activity"

// Minimums before a raw pace value is trusted
const (
	MinPaceDistanceMeters = 5.0
	MinPaceDurationSecs   = 5.0
)

// Pace smooths pace in seconds per kilometer over a kind-sized window.
type Pace struct {
	window *Window
}

// NewPace creates a pace smoother sized for k.
func NewPace(k activity.Kind) *Pace {
	return &Pace{window: NewWindow(activity.PaceWindow(k))}
}

// Update computes the raw pace for the cumulative distance and duration,
// admits it into the window if valid, and returns the smoothed pace.
// Invalid computations leave the window untouched.
func (p *Pace) Update(distanceMeters, durationSeconds float64) float64 {
	if distanceMeters >= MinPaceDistanceMeters && durationSeconds >= MinPaceDurationSecs {
		p.window.Push(durationSeconds / (distanceMeters / 1000))
	}
	return p.window.Mean()
}

// Value returns the current smoothed pace, or 0 if nothing valid was seen.
func (p *Pace) Value() float64 {
	return p.window.Mean()
}

// Reset empties the window.
func (p *Pace) Reset() {
	p.window.Reset()
}
