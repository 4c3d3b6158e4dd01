package activity

// Per-kind tuning tables
const (
	// MaxAccuracyMeters is the worst reported GPS accuracy still accepted
	MaxAccuracyMeters = 50.0

	// Speed ceilings in m/s
	FootSpeedCeiling  = 8.0
	CycleSpeedCeiling = 20.0

	// Accelerometer rep thresholds in g
	DefaultTrigger = 1.2
	ReleaseLevel   = 0.8
)

// minStepMeters is the smallest movement counted as distance, per kind
var minStepMeters = map[Name]float64{
	Walk:  1.5,
	Jog:   2.0,
	Run:   2.5,
	Cycle: 3.0,
}

// MinStepMeters returns the GPS jitter floor for k.
func MinStepMeters(k Kind) float64 {
	if v, ok := minStepMeters[k.Name]; ok {
		return v
	}
	return minStepMeters[Walk]
}

// SpeedCeiling returns the highest plausible instantaneous speed for k in m/s.
func SpeedCeiling(k Kind) float64 {
	if k.Name == Cycle {
		return CycleSpeedCeiling
	}
	return FootSpeedCeiling
}

// PaceWindow returns the number of raw pace values averaged for k.
// Cycling uses a wider window to damp its higher variance.
func PaceWindow(k Kind) int {
	if k.Name == Cycle {
		return 7
	}
	return 5
}

var triggerThresholds = map[Name]float64{
	Pushup: 1.3,
	Squat:  1.4,
	Situp:  1.5,
}

// TriggerThreshold returns the accelerometer magnitude that arms a rep.
func TriggerThreshold(k Kind) float64 {
	if v, ok := triggerThresholds[k.Name]; ok {
		return v
	}
	return DefaultTrigger
}

// metValues are metabolic equivalents used for calorie estimates
var metValues = map[Name]float64{
	Walk:   3.5,
	Jog:    7.0,
	Run:    9.8,
	Cycle:  7.5,
	Pushup: 8.0,
	Squat:  5.0,
	Situp:  3.8,
	Reps:   4.0,
}

// MET returns the metabolic equivalent of k.
func MET(k Kind) float64 {
	if v, ok := metValues[k.Name]; ok {
		return v
	}
	return metValues[Reps]
}
