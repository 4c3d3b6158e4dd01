package session

import (
	"errors"
	"fmt"

	"hakbang/internal/sensor"
)

var (
	// ErrPermissionDenied is matched by every *PermissionError
	ErrPermissionDenied = errors.New("sensor permission denied")

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("session below minimum activity")

	// ErrInvalidTransition is returned when an operation does not apply to the current state
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrSessionUnresolved is returned by Start while a session is still tracking, paused or ended
	ErrSessionUnresolved = errors.New("current session must be saved or discarded first")

	// ErrNotRepetition is returned by ResetCalibration for sessions without calibration
	ErrNotRepetition = errors.New("session has no calibrated repetition detector")

	// ErrNoStream is returned when a required sensor stream was not provided
	ErrNoStream = errors.New("sensor stream not available")

	// ErrNoPersister is returned by Save when the engine has nowhere to save to
	ErrNoPersister = errors.New("no session persister configured")
)

// PermissionError reports a sensor family the platform refused.
type PermissionError struct {
	Family sensor.Family
	Err    error
}

func (e *PermissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s permission denied", e.Family)
	}
	return fmt.Sprintf("%s permission denied: %v", e.Family, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

func (e *PermissionError) Is(target error) bool { return target == ErrPermissionDenied }

// ValidationError reports why a session may not be saved yet.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "cannot save session: " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalidTransition(op string, from State) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, from)
}
