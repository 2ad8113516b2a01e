package domain

import "errors"

// Sentinel errors shared by repositories, services and controllers.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrTooManyTags  = errors.New("too many tags")

	// Participation conflicts.
	ErrAlreadyParticipating = errors.New("already participating")
	ErrEventFull            = errors.New("event is full")
	ErrNotParticipating     = errors.New("not participating in this event")
)

// IsConflict reports whether err is one of the participation conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyParticipating) ||
		errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrNotParticipating)
}
