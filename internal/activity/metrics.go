package activity

// Metrics is the accumulated measurement of a session. It is a value
// type; holders never share one mutably.
type Metrics struct {
	DistanceMeters   float64 `json:"distance_meters"`
	DurationSeconds  float64 `json:"duration_seconds"`
	PaceSecondsPerKm float64 `json:"pace_seconds_per_km"` // 0 until valid
	AvgSpeedKph      float64 `json:"avg_speed_kph"`
	RepCount         int     `json:"rep_count"`
	Calories         float64 `json:"calories"`
}

// DistanceKm returns the distance in kilometers.
func (m Metrics) DistanceKm() float64 {
	return m.DistanceMeters / 1000
}
