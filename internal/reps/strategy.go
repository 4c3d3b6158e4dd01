// Package reps detects exercise repetitions from motion or camera samples.
package reps

import (
	"errors"
	"fmt"
	"time"

	"hakbang/internal/activity"
	"hakbang/internal/sensor"
)

// Event is emitted once per completed repetition
type Event struct {
	Count int       // running total including this rep
	Time  time.Time // timestamp of the sample that completed it
}

// Strategy turns a sample stream into repetition events.
type Strategy interface {
	// Process consumes one sample and reports a completed repetition, if any.
	Process(s sensor.Sample) (Event, bool)
	// Count returns the repetitions detected so far.
	Count() int
	// Reset returns the strategy to its initial state.
	Reset()
}

// ErrNoStrategy is returned for kinds that do not count repetitions
var ErrNoStrategy = errors.New("activity has no repetition strategy")

// New selects the strategy for k.
func New(k activity.Kind) (Strategy, error) {
	if !k.RepetitionBased() {
		return nil, ErrNoStrategy
	}
	switch k.Strategy {
	case activity.StrategyAccelerometer:
		return NewAccelerometer(activity.TriggerThreshold(k)), nil
	case activity.StrategyProximity:
		return NewProximity(), nil
	}
	return nil, fmt.Errorf("unknown strategy %q: %w", k.Strategy, ErrNoStrategy)
}
