package filter

import (
	"hakbang/internal/activity"
	"hakbang/internal/distance"
	"hakbang/internal/sensor"
)

const (
	// LowAccuracyMeters is the accuracy beyond which a fix counts as low quality
	LowAccuracyMeters = 20.0

	// DowngradeStreak is how many consecutive low-accuracy fixes it takes
	// before the reported quality drops
	DowngradeStreak = 5
)

// Filter rejects implausible location fixes and tracks signal quality.
// Repetition samples always pass.
type Filter struct {
	maxAccuracy float64
	last        *sensor.Location
	lowStreak   int
	quality     Quality
	rejected    int
}

// New creates a Filter rejecting fixes worse than maxAccuracy meters.
// A non-positive value selects activity.MaxAccuracyMeters.
func New(maxAccuracy float64) *Filter {
	if maxAccuracy <= 0 {
		maxAccuracy = activity.MaxAccuracyMeters
	}
	return &Filter{maxAccuracy: maxAccuracy, quality: QualityGood}
}

// Accept reports whether s should be processed for an activity of kind k.
func (f *Filter) Accept(s sensor.Sample, k activity.Kind) bool {
	loc, ok := s.(sensor.Location)
	if !ok {
		return true
	}

	f.observe(loc.Accuracy)

	if loc.Accuracy > f.maxAccuracy {
		f.rejected++
		return false
	}
	if f.tooFast(loc, k) {
		f.rejected++
		return false
	}

	f.last = &loc
	return true
}

// tooFast checks the speed implied by the last accepted fix, falling back
// to the device-reported speed when the timestamps are unusable.
func (f *Filter) tooFast(loc sensor.Location, k activity.Kind) bool {
	ceiling := activity.SpeedCeiling(k)
	if loc.Speed > ceiling {
		return true
	}
	if f.last == nil {
		return false
	}
	dt := loc.Time.Sub(f.last.Time).Seconds()
	if dt <= 0 {
		return false
	}
	d := distance.Haversine(f.last.Lat, f.last.Lng, loc.Lat, loc.Lng)
	return d/dt > ceiling
}

// observe updates the quality classification from one reported accuracy.
// A usable fix sets the class directly; low fixes only drop it one step
// per DowngradeStreak consecutive occurrences.
func (f *Filter) observe(accuracy float64) {
	if accuracy <= LowAccuracyMeters {
		f.lowStreak = 0
		f.quality = classify(accuracy)
		return
	}
	f.lowStreak++
	if f.lowStreak >= DowngradeStreak {
		f.lowStreak = 0
		if f.quality < QualityPoor {
			f.quality++
		}
	}
}

// Quality returns the current signal classification.
func (f *Filter) Quality() Quality {
	return f.quality
}

// Rejected returns how many fixes were rejected.
func (f *Filter) Rejected() int {
	return f.rejected
}

// Rebase forgets the last accepted fix so the next one is not checked
// against it. Quality and counters are kept.
func (f *Filter) Rebase() {
	f.last = nil
}

// Reset forgets the last accepted fix and the quality history.
func (f *Filter) Reset() {
	f.last = nil
	f.lowStreak = 0
	f.quality = QualityGood
	f.rejected = 0
}
