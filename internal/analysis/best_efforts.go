package analysis

import (
	"hakbang/internal/distance"
	"hakbang/internal/sensor"
)

// TrailPoint is a trail fix reduced to elapsed time and cumulative distance
type TrailPoint struct {
	Offset   float64 // seconds since the first fix
	Distance float64 // cumulative meters
}

// BestEffort represents the fastest segment of a given distance within a session
type BestEffort struct {
	DistanceMeters  float64
	DurationSeconds float64
	StartOffset     float64 // trail offset where the effort starts
	EndOffset       float64 // trail offset where the effort ends
}

// Standard effort distances in meters
const (
	Distance400m       = 400
	Distance1K         = 1000
	Distance1Mile      = 1609.34
	Distance5K         = 5000
	Distance10K        = 10000
	MinPointsForEffort = 10 // minimum trail points needed
)

// EffortDistances defines the best effort distances reported for a session
var EffortDistances = []float64{
	Distance400m,
	Distance1K,
	Distance1Mile,
	Distance5K,
	Distance10K,
}

// EffortLabels maps distances to display labels
var EffortLabels = map[float64]string{
	Distance400m:  "400m",
	Distance1K:    "1K",
	Distance1Mile: "1 mi",
	Distance5K:    "5K",
	Distance10K:   "10K",
}

// Cumulate converts a smoothed trail into time/distance points. Steps
// shorter than minStep are treated as jitter, matching live accumulation.
func Cumulate(trail []sensor.Location, minStep float64) []TrailPoint {
	if len(trail) == 0 {
		return nil
	}
	points := make([]TrailPoint, 0, len(trail))
	start := trail[0].Time
	var total float64
	for i, p := range trail {
		if i > 0 {
			prev := trail[i-1]
			if d := distance.Haversine(prev.Lat, prev.Lng, p.Lat, p.Lng); d >= minStep {
				total += d
			}
		}
		points = append(points, TrailPoint{
			Offset:   p.Time.Sub(start).Seconds(),
			Distance: total,
		})
	}
	return points
}

// FindBestEffort finds the fastest segment of targetDistance meters within the trail.
// Returns nil if the session is shorter than targetDistance or has insufficient data.
func FindBestEffort(points []TrailPoint, targetDistance float64) *BestEffort {
	if len(points) < MinPointsForEffort {
		return nil
	}

	totalDistance := points[len(points)-1].Distance - points[0].Distance
	if totalDistance < targetDistance {
		return nil
	}

	var best *BestEffort

	// Two pointers: for each start, the first end covering the target is
	// the shortest candidate from that start.
	right := 1
	for left := 0; left < len(points)-1; left++ {
		if right <= left {
			right = left + 1
		}
		for right < len(points) && points[right].Distance-points[left].Distance < targetDistance {
			right++
		}
		if right == len(points) {
			break
		}

		duration := points[right].Offset - points[left].Offset
		if duration <= 0 {
			continue
		}
		if best == nil || duration < best.DurationSeconds {
			best = &BestEffort{
				DistanceMeters:  points[right].Distance - points[left].Distance,
				DurationSeconds: duration,
				StartOffset:     points[left].Offset,
				EndOffset:       points[right].Offset,
			}
		}
	}

	return best
}

// BestEfforts returns the best effort for every standard distance the trail covers.
func BestEfforts(points []TrailPoint) map[float64]BestEffort {
	efforts := make(map[float64]BestEffort)
	for _, d := range EffortDistances {
		if e := FindBestEffort(points, d); e != nil {
			efforts[d] = *e
		}
	}
	return efforts
}

// PaceSecondsPerKm calculates pace in seconds per kilometer
func PaceSecondsPerKm(distanceMeters, durationSeconds float64) float64 {
	if distanceMeters <= 0 || durationSeconds <= 0 {
		return 0
	}
	return durationSeconds / (distanceMeters / 1000)
}
