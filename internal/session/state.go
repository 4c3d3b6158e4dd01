package session

// State is the lifecycle position of the engine's session
type State int

const (
	StateIdle State = iota
	StateTracking
	StatePaused
	StateEnded
	StateSaved
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateSaved:
		return "saved"
	case StateDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Active reports whether a session exists that must be resolved before
// another can start.
func (s State) Active() bool {
	return s == StateTracking || s == StatePaused || s == StateEnded
}

// Live reports whether the session is still taking samples or could
// resume taking them.
func (s State) Live() bool {
	return s == StateTracking || s == StatePaused
}
