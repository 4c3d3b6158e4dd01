package smooth

import "hakbang/internal/sensor"

const (
	// LocationHistory is how many prior accepted fixes are blended with a new one
	LocationHistory = 5

	// unknownAccuracy stands in for fixes that report no accuracy
	unknownAccuracy = 20.0
)

// WeightedLocation blends next with the prior fixes in history (oldest
// first). A point's weight is its recency rank divided by its reported
// accuracy, so recent and precise fixes dominate. With fewer than two prior
// fixes next is returned unchanged.
func WeightedLocation(history []sensor.Location, next sensor.Location) sensor.Location {
	if len(history) < 2 {
		return next
	}
	if len(history) > LocationHistory {
		history = history[len(history)-LocationHistory:]
	}

	var lat, lng, total float64
	add := func(rank int, p sensor.Location) {
		acc := p.Accuracy
		if acc <= 0 {
			acc = unknownAccuracy
		}
		w := float64(rank) / acc
		lat += p.Lat * w
		lng += p.Lng * w
		total += w
	}
	for i, p := range history {
		add(i+1, p)
	}
	add(len(history)+1, next)

	out := next
	out.Lat = lat / total
	out.Lng = lng / total
	return out
}

// Location keeps the recent accepted fixes and smooths each new one
// against them.
type Location struct {
	history []sensor.Location
}

// NewLocation creates an empty location smoother.
func NewLocation() *Location {
	return &Location{history: make([]sensor.Location, 0, LocationHistory)}
}

// Smooth returns the smoothed form of p and records the raw p as history.
func (l *Location) Smooth(p sensor.Location) sensor.Location {
	out := WeightedLocation(l.history, p)
	if len(l.history) == LocationHistory {
		copy(l.history, l.history[1:])
		l.history = l.history[:LocationHistory-1]
	}
	l.history = append(l.history, p)
	return out
}

// Reset forgets the history.
func (l *Location) Reset() {
	l.history = l.history[:0]
}
