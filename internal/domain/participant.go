package domain

import (
	"context"
	"time"
)

// Participant is a user's membership in an event.
// swagger:model Participant
type Participant struct {
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}

// ParticipantRepository defines storage for event memberships.
type ParticipantRepository interface {
	// Add inserts the membership; an existing (user, event) pair is a no-op.
	Add(ctx context.Context, userID, eventID string) error
	// AddWithinCapacity inserts the membership only if the user is not yet a member and the
	// event has room, deciding atomically with respect to concurrent callers.
	// Returns ErrNotFound, ErrAlreadyParticipating or ErrEventFull.
	AddWithinCapacity(ctx context.Context, userID, eventID string) error
	// Remove deletes the membership and reports whether a row was removed.
	Remove(ctx context.Context, userID, eventID string) (bool, error)
	IsMember(ctx context.Context, userID, eventID string) (bool, error)
	Count(ctx context.Context, eventID string) (int, error)
	ListMembers(ctx context.Context, eventID string) ([]*Participant, error)
}

// ParticipationService drives the join/leave state machine.
type ParticipationService interface {
	JoinEvent(ctx context.Context, eventID, userID string) error
	LeaveEvent(ctx context.Context, eventID, userID string) error
}
