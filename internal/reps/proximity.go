package reps

import (
	"time"

	"hakbang/internal/sensor"
	"hakbang/internal/smooth"
)

// Phase is the position of the proximity detector
type Phase int

const (
	PhaseCalibrating Phase = iota
	PhaseUp
	PhaseDown
)

func (p Phase) String() string {
	switch p {
	case PhaseCalibrating:
		return "calibrating"
	case PhaseUp:
		return "up"
	case PhaseDown:
		return "down"
	}
	return "unknown"
}

const (
	// Debounce is the minimum spacing between two phase changes
	Debounce = 600 * time.Millisecond

	// SizeWindow is how many face areas are averaged before comparing to thresholds
	SizeWindow = 3
)

// CalibrationStatus describes the detector for display.
type CalibrationStatus struct {
	Phase       Phase
	Remaining   time.Duration // countdown left, zero once calibrated
	Samples     int
	Level       bool
	Suspended   bool // calibrated but detection paused because the device is not level
	Profile     *CalibrationProfile
	LastFailure *CalibrationFailure
	Attempts    int
}

// Proximity counts reps from the size of the user's face on camera: the
// face grows as the body lowers towards a phone lying flat on the floor.
// A calibration countdown with a blink check sets the baseline, then two
// thresholds with hysteresis drive an Up/Down toggle. A rep completes on
// Down→Up.
type Proximity struct {
	phase      Phase
	cal        calibrator
	profile    *CalibrationProfile
	failure    *CalibrationFailure
	attempts   int
	level      bool
	size       *smooth.Window
	lastChange time.Time
	count      int
}

// NewProximity creates a detector in the calibrating phase.
func NewProximity() *Proximity {
	return &Proximity{size: smooth.NewWindow(SizeWindow)}
}

func (p *Proximity) Process(s sensor.Sample) (Event, bool) {
	switch v := s.(type) {
	case sensor.Orientation:
		p.orient(v)
	case sensor.Face:
		if v.Missing {
			return Event{}, false
		}
		if p.phase == PhaseCalibrating {
			p.calibrate(v)
			return Event{}, false
		}
		return p.detect(v)
	}
	return Event{}, false
}

func (p *Proximity) orient(o sensor.Orientation) {
	p.level = o.IsLevel()
	if p.phase == PhaseCalibrating && !p.level && p.cal.running() {
		p.fail(DeviceNotLevel, o.Time)
	}
}

func (p *Proximity) calibrate(f sensor.Face) {
	if !p.level {
		if p.failure == nil || p.failure.Reason != DeviceNotLevel {
			p.fail(DeviceNotLevel, f.Time)
		}
		return
	}
	p.cal.add(f.Time, f.Box.Area(), f.LeftEyeOpen, f.RightEyeOpen)
	if !p.cal.done() {
		return
	}

	profile, reason, ok := p.cal.evaluate()
	if !ok {
		p.fail(reason, f.Time)
		return
	}
	p.profile = &profile
	p.failure = nil
	p.phase = PhaseUp
	p.lastChange = f.Time
	p.size.Reset()
	p.cal.reset()
}

func (p *Proximity) fail(reason FailureReason, at time.Time) {
	p.attempts++
	p.failure = &CalibrationFailure{Reason: reason, Samples: len(p.cal.areas), At: at}
	p.cal.reset()
}

func (p *Proximity) detect(f sensor.Face) (Event, bool) {
	if !p.level {
		return Event{}, false
	}
	if f.Time.Sub(p.lastChange) < Debounce {
		return Event{}, false
	}

	size := p.size.Push(f.Box.Area())
	switch p.phase {
	case PhaseUp:
		if size > p.profile.DownThreshold {
			p.phase = PhaseDown
			p.lastChange = f.Time
		}
	case PhaseDown:
		if size < p.profile.UpThreshold {
			p.phase = PhaseUp
			p.lastChange = f.Time
			p.count++
			return Event{Count: p.count, Time: f.Time}, true
		}
	}
	return Event{}, false
}

func (p *Proximity) Count() int { return p.count }

// Reset discards the profile and restarts calibration with zeroed counters.
func (p *Proximity) Reset() {
	p.phase = PhaseCalibrating
	p.cal.reset()
	p.profile = nil
	p.failure = nil
	p.attempts = 0
	p.size.Reset()
	p.lastChange = time.Time{}
	p.count = 0
}

// Phase returns the current detector phase.
func (p *Proximity) Phase() Phase { return p.phase }

// Profile returns the calibration profile, or nil while calibrating.
func (p *Proximity) Profile() *CalibrationProfile {
	if p.profile == nil {
		return nil
	}
	cp := *p.profile
	return &cp
}

// LastFailure returns the most recent rejected calibration, if any.
func (p *Proximity) LastFailure() *CalibrationFailure {
	if p.failure == nil {
		return nil
	}
	f := *p.failure
	return &f
}

// Calibration reports the detector state.
func (p *Proximity) Calibration() CalibrationStatus {
	st := CalibrationStatus{
		Phase:       p.phase,
		Samples:     len(p.cal.areas),
		Level:       p.level,
		Profile:     p.Profile(),
		LastFailure: p.LastFailure(),
		Attempts:    p.attempts,
	}
	if p.phase == PhaseCalibrating {
		st.Remaining = CalibrationWindow - p.cal.elapsed()
	} else {
		st.Suspended = !p.level
	}
	return st
}
