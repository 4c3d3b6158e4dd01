package reps

import (
	"time"

	"hakbang/internal/smooth"
)

// Calibration tuning
const (
	CalibrationWindow     = 3 * time.Second
	MinCalibrationSamples = 10 // strictly more are required
	TrimFraction          = 0.2

	EyesOpenAbove   = 0.7
	EyesClosedBelow = 0.4

	DownFactor = 1.5
	UpFactor   = 1.2
)

// CalibrationProfile is the per-session baseline derived from calibration.
// It is immutable once produced.
type CalibrationProfile struct {
	BaselineArea       float64
	DownThreshold      float64
	UpThreshold        float64
	LivenessOpenSeen   bool
	LivenessClosedSeen bool
}

// FailureReason says why a calibration attempt was rejected
type FailureReason string

const (
	InsufficientSamples FailureReason = "insufficient samples"
	NoEyesOpen          FailureReason = "no eyes-open observed"
	NoEyesClosed        FailureReason = "no eyes-closed observed"
	DeviceNotLevel      FailureReason = "device not level"
)

// CalibrationFailure records a rejected calibration attempt. The
// countdown restarts on its own; this is state, not an error.
type CalibrationFailure struct {
	Reason  FailureReason
	Samples int
	At      time.Time
}

func (f CalibrationFailure) String() string {
	return "calibration failed: " + string(f.Reason)
}

// calibrator collects one countdown window of samples.
type calibrator struct {
	started    time.Time
	last       time.Time
	areas      []float64
	openSeen   bool
	closedSeen bool
}

func (c *calibrator) running() bool {
	return !c.started.IsZero()
}

func (c *calibrator) add(at time.Time, area, left, right float64) {
	if c.started.IsZero() {
		c.started = at
	}
	c.last = at
	c.areas = append(c.areas, area)
	if left > EyesOpenAbove || right > EyesOpenAbove {
		c.openSeen = true
	}
	if left < EyesClosedBelow || right < EyesClosedBelow {
		c.closedSeen = true
	}
}

func (c *calibrator) elapsed() time.Duration {
	if c.started.IsZero() {
		return 0
	}
	return c.last.Sub(c.started)
}

func (c *calibrator) done() bool {
	return c.running() && c.elapsed() >= CalibrationWindow
}

// evaluate checks the collected window and derives a profile on success.
func (c *calibrator) evaluate() (CalibrationProfile, FailureReason, bool) {
	switch {
	case len(c.areas) <= MinCalibrationSamples:
		return CalibrationProfile{}, InsufficientSamples, false
	case !c.openSeen:
		return CalibrationProfile{}, NoEyesOpen, false
	case !c.closedSeen:
		return CalibrationProfile{}, NoEyesClosed, false
	}
	return NewProfile(c.areas, c.openSeen, c.closedSeen), "", true
}

func (c *calibrator) reset() {
	*c = calibrator{areas: c.areas[:0]}
}

// NewProfile derives thresholds from raw calibration areas using a
// trimmed mean as the baseline.
func NewProfile(areas []float64, openSeen, closedSeen bool) CalibrationProfile {
	baseline := smooth.TrimmedMean(areas, TrimFraction)
	return CalibrationProfile{
		BaselineArea:       baseline,
		DownThreshold:      baseline * DownFactor,
		UpThreshold:        baseline * UpFactor,
		LivenessOpenSeen:   openSeen,
		LivenessClosedSeen: closedSeen,
	}
}
