package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the caller identity is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller lacks the required privilege.
	ErrForbidden = errors.New("forbidden")
	// ErrSessionNotFound is returned when no trivia session exists for the key.
	ErrSessionNotFound = errors.New("trivia session not found")
	// ErrQuestionsNotFound indicates the session has no loadable questions.
	ErrQuestionsNotFound = errors.New("questions not found")
	// ErrParticipationNotFound is returned when a user has not started a session.
	ErrParticipationNotFound = errors.New("participation not found")
	// ErrSessionExists is returned when a session already exists for a date.
	ErrSessionExists = errors.New("trivia session already exists for date")
	// ErrAlreadyGenerated signals that a date already has its question set.
	ErrAlreadyGenerated = errors.New("questions already generated for date")
	// ErrAlreadyCompleted is returned when a user has already finished a session.
	ErrAlreadyCompleted = errors.New("session already completed by user")
	// ErrGeneration indicates the question generator failed or returned bad content.
	ErrGeneration = errors.New("question generation failed")
	// ErrValidation indicates a malformed payload.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
