package recording

import (
	"fmt"
	"io"
	"math"

	"github.com/tormoder/fit"

	"hakbang/internal/sensor"
)

// FITAccuracy is the accuracy assumed for FIT record positions
const FITAccuracy = 5.0

// ReadFIT turns the record messages of a FIT activity into location
// samples. Records without a valid position are skipped.
func ReadFIT(r io.Reader) ([]sensor.Sample, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding FIT: %w", err)
	}
	act, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("not a FIT activity: %w", err)
	}

	var samples []sensor.Sample
	for _, rec := range act.Records {
		if rec == nil || rec.PositionLat.Invalid() || rec.PositionLong.Invalid() {
			continue
		}
		speed := rec.GetSpeedScaled()
		if math.IsNaN(speed) {
			speed = 0
		}
		samples = append(samples, sensor.Location{
			Lat:      rec.PositionLat.Degrees(),
			Lng:      rec.PositionLong.Degrees(),
			Accuracy: FITAccuracy,
			Speed:    speed,
			Time:     rec.Timestamp,
		})
	}
	return samples, nil
}
