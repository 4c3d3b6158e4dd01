package analysis

import (
	"hakbang/internal/activity"
	"hakbang/internal/sensor"
)

// Calories estimates energy burned as MET × body weight × hours.
func Calories(k activity.Kind, durationSeconds, weightKg float64) float64 {
	if durationSeconds <= 0 || weightKg <= 0 {
		return 0
	}
	return activity.MET(k) * weightKg * durationSeconds / 3600
}

// Summary is the post-session breakdown shown for a saved session
type Summary struct {
	Splits      []Split
	BestEfforts map[float64]BestEffort
	MovingRatio float64 // share of elapsed trail time spent moving
}

// MovingSpeed is the speed below which a trail step counts as stopped (m/s)
const MovingSpeed = 0.5

// Summarize computes splits and best efforts for a distance session.
// Repetition sessions have no trail and yield an empty summary.
func Summarize(k activity.Kind, trail []sensor.Location) Summary {
	if !k.DistanceBased() || len(trail) < 2 {
		return Summary{}
	}

	points := Cumulate(trail, activity.MinStepMeters(k))
	return Summary{
		Splits:      Splits(points, Distance1K),
		BestEfforts: BestEfforts(points),
		MovingRatio: movingRatio(points),
	}
}

func movingRatio(points []TrailPoint) float64 {
	total := points[len(points)-1].Offset - points[0].Offset
	if total <= 0 {
		return 0
	}
	var moving float64
	for i := 1; i < len(points); i++ {
		dt := points[i].Offset - points[i-1].Offset
		if dt <= 0 {
			continue
		}
		if (points[i].Distance-points[i-1].Distance)/dt > MovingSpeed {
			moving += dt
		}
	}
	return moving / total
}

// SignalDescription returns a human-readable description of the share of
// fixes that were accepted by the filter
func SignalDescription(acceptedRatio float64) string {
	switch {
	case acceptedRatio >= 0.95:
		return "Excellent"
	case acceptedRatio >= 0.85:
		return "Good"
	case acceptedRatio >= 0.70:
		return "Fair"
	case acceptedRatio >= 0.50:
		return "Poor"
	default:
		return "Very Poor"
	}
}
