package activity

import (
	"fmt"
	"strings"
)

// Name identifies an exercise
type Name string

const (
	Walk  Name = "walk"
	Jog   Name = "jog"
	Run   Name = "run"
	Cycle Name = "cycle"

	Pushup Name = "pushup"
	Squat  Name = "squat"
	Situp  Name = "situp"
	Reps   Name = "reps" // generic repetition exercise
)

// Strategy selects how repetitions are detected
type Strategy string

const (
	StrategyNone          Strategy = ""
	StrategyAccelerometer Strategy = "accelerometer"
	StrategyProximity     Strategy = "proximity"
)

// Kind is an exercise together with its repetition strategy. Distance
// based kinds carry StrategyNone.
type Kind struct {
	Name     Name
	Strategy Strategy
}

// Distance returns a distance based kind.
func Distance(n Name) Kind {
	return Kind{Name: n}
}

// Repetition returns a repetition based kind using strategy s.
func Repetition(n Name, s Strategy) Kind {
	return Kind{Name: n, Strategy: s}
}

// DistanceBased reports whether the kind accumulates GPS distance.
func (k Kind) DistanceBased() bool {
	switch k.Name {
	case Walk, Jog, Run, Cycle:
		return true
	}
	return false
}

// RepetitionBased reports whether the kind counts repetitions.
func (k Kind) RepetitionBased() bool {
	return !k.DistanceBased()
}

// Valid reports whether the kind is a known combination.
func (k Kind) Valid() bool {
	switch k.Name {
	case Walk, Jog, Run, Cycle:
		return k.Strategy == StrategyNone
	case Pushup, Squat, Situp, Reps:
		return k.Strategy == StrategyAccelerometer || k.Strategy == StrategyProximity
	}
	return false
}

func (k Kind) String() string {
	if k.Strategy == StrategyNone {
		return string(k.Name)
	}
	return string(k.Name) + ":" + string(k.Strategy)
}

// ParseKind parses "walk", "pushup" or "pushup:proximity". Repetition
// exercises without an explicit strategy use the accelerometer.
func ParseKind(s string) (Kind, error) {
	name, strategy, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	k := Kind{Name: Name(name), Strategy: Strategy(strategy)}
	if k.RepetitionBased() && k.Strategy == StrategyNone {
		k.Strategy = StrategyAccelerometer
	}
	if !k.Valid() {
		return Kind{}, fmt.Errorf("unknown activity kind %q", s)
	}
	return k, nil
}
