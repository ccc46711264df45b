package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Identity errors
	ErrTeamNotFound    = errors.New("team not found")
	ErrSessionNotFound = errors.New("session not found")

	// Application / approach errors
	ErrApplicationNotFound = errors.New("application not found")
	ErrApproachNotFound    = errors.New("approach not found")

	// Tryout errors
	ErrTryoutNotFound = errors.New("tryout session not found")

	// Message errors
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message body is empty")
	ErrReasonRequired  = errors.New("end reason is required")

	// ErrInvalidState is the match target for InvalidStateError
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrUnauthorized means the actor lacks the role for the action.
	// Not retriable.
	ErrUnauthorized = errors.New("actor is not authorized for this action")

	// ErrTransportUnavailable means the target has no live connection.
	// Persisted messages are still stored; delivery is best-effort.
	ErrTransportUnavailable = errors.New("target is not connected")
)

// InvalidStateError is returned when an operation is not legal in the
// session's current status. It carries the persisted status so the caller
// can reconcile its view without guessing. Recoverable by refetching state.
type InvalidStateError struct {
	Op     string
	Status TryoutStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not valid in status %q", e.Op, e.Status)
}

// Is makes errors.Is(err, ErrInvalidState) match
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NewInvalidStateError builds an InvalidStateError for the given operation
func NewInvalidStateError(op string, status TryoutStatus) error {
	return &InvalidStateError{Op: op, Status: status}
}
