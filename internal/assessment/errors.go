package assessment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState marks a call that breaks the session's state contract.
	// It indicates a caller bug and is never retried.
	ErrInvalidState = errors.New("invalid session state")

	// ErrSessionClosed is returned for any call made after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrNoQuestions is returned when a session is built from an empty pool.
	ErrNoQuestions = errors.New("session has no questions")
)

func invalidState(op string, status Status) error {
	return fmt.Errorf("%s while %s: %w", op, status, ErrInvalidState)
}

// ValidationError is a user-correctable input problem. The session is left
// unchanged when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// GradingError wraps a failed call to the external grading service. The
// session stays submitted and Grade may be called again.
type GradingError struct {
	Err error
}

func (e *GradingError) Error() string {
	return "grading failed: " + e.Err.Error()
}

func (e *GradingError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
