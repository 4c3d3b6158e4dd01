package analysis

// Split is one fixed-distance segment of a session
type Split struct {
	Index            int
	DistanceMeters   float64 // may be short for the final partial split
	DurationSeconds  float64
	PaceSecondsPerKm float64
}

// PartialSplitThreshold is the shortest trailing split worth reporting
const PartialSplitThreshold = 100.0

// Splits cuts the trail into consecutive splitMeters segments. The
// boundary time is interpolated between the two fixes straddling it.
func Splits(points []TrailPoint, splitMeters float64) []Split {
	if len(points) < 2 || splitMeters <= 0 {
		return nil
	}

	var splits []Split
	boundary := splitMeters
	startOffset := points[0].Offset
	startDistance := points[0].Distance

	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		for cur.Distance >= boundary {
			at := interpolate(prev, cur, boundary)
			splits = append(splits, newSplit(len(splits)+1, boundary-startDistance, at-startOffset))
			startOffset = at
			startDistance = boundary
			boundary += splitMeters
		}
	}

	last := points[len(points)-1]
	if rest := last.Distance - startDistance; rest >= PartialSplitThreshold {
		splits = append(splits, newSplit(len(splits)+1, rest, last.Offset-startOffset))
	}
	return splits
}

func newSplit(index int, meters, seconds float64) Split {
	return Split{
		Index:            index,
		DistanceMeters:   meters,
		DurationSeconds:  seconds,
		PaceSecondsPerKm: PaceSecondsPerKm(meters, seconds),
	}
}

// interpolate returns the offset at which distance d was crossed between a and b
func interpolate(a, b TrailPoint, d float64) float64 {
	span := b.Distance - a.Distance
	if span <= 0 {
		return b.Offset
	}
	frac := (d - a.Distance) / span
	return a.Offset + frac*(b.Offset-a.Offset)
}
