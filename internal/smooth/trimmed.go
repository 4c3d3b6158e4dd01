package smooth

import "sort"

// TrimmedMean sorts a copy of values, discards fraction of the count from
// each end and averages the rest. If trimming would leave nothing the plain
// mean is returned.
func TrimmedMean(values []float64, fraction float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	cut := int(float64(len(sorted)) * fraction)
	if cut < 0 {
		cut = 0
	}
	if 2*cut >= len(sorted) {
		return Mean(sorted)
	}
	return Mean(sorted[cut : len(sorted)-cut])
}
