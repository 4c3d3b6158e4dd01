package tui

import (
	"fmt"

	"hakbang/internal/config"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.2f mi", meters/metersPerMile)
	}
	return fmt.Sprintf("%.2f km", meters/metersPerKm)
}

// PaceSeconds converts seconds per km to seconds per preferred unit
func (u Units) PaceSeconds(secondsPerKm float64) float64 {
	if u.cfg.PaceUnit == "min/mi" {
		return secondsPerKm * metersPerMile / metersPerKm
	}
	return secondsPerKm
}

// FormatPace formats a pace in seconds per km as M:SS in the user's preferred unit
func (u Units) FormatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 {
		return "-"
	}
	p := int(u.PaceSeconds(secondsPerKm) + 0.5)
	return fmt.Sprintf("%d:%02d", p/60, p%60)
}

// FormatPaceWithUnit formats pace with the unit label
func (u Units) FormatPaceWithUnit(secondsPerKm float64) string {
	pace := u.FormatPace(secondsPerKm)
	if pace == "-" {
		return pace
	}
	return pace + "/" + u.DistanceLabel()
}

// FormatSpeed formats km/h in the preferred distance unit per hour
func (u Units) FormatSpeed(kph float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.1f mph", kph*metersPerKm/metersPerMile)
	}
	return fmt.Sprintf("%.1f km/h", kph)
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.cfg.DistanceUnit == "mi" {
		return "mi"
	}
	return "km"
}

// PaceLabel returns the pace unit label ("min/mi" or "min/km")
func (u Units) PaceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "min/mi"
	}
	return "min/km"
}

// PaceMinutes converts a series of seconds-per-km paces to minutes per
// preferred unit for charts. Zero entries stay zero.
func (u Units) PaceMinutes(secondsPerKm []float64) []float64 {
	out := make([]float64, len(secondsPerKm))
	for i, p := range secondsPerKm {
		if p > 0 {
			out[i] = u.PaceSeconds(p) / 60
		}
	}
	return out
}

// formatDuration formats seconds as "H:MM:SS" or "M:SS"
func formatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
