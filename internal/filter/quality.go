package filter

// Quality classifies GPS signal for display. It never halts tracking.
type Quality int

const (
	QualityExcellent Quality = iota
	QualityGood
	QualityFair
	QualityPoor
)

func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "Excellent"
	case QualityGood:
		return "Good"
	case QualityFair:
		return "Fair"
	default:
		return "Poor"
	}
}

// classify maps a reported accuracy in meters to a quality class
func classify(accuracy float64) Quality {
	switch {
	case accuracy <= 0:
		return QualityFair
	case accuracy <= 5:
		return QualityExcellent
	case accuracy <= 10:
		return QualityGood
	case accuracy <= LowAccuracyMeters:
		return QualityFair
	default:
		return QualityPoor
	}
}
