package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxCapacity is the largest capacity the events table can store.
const MaxCapacity = math.MaxInt32

// Visibility controls whether an event is discoverable through public listing.
type Visibility int16

const (
	VisibilityPublic  Visibility = 0
	VisibilityPrivate Visibility = 1
)

// ParseVisibility parses "Public" or "Private", case-insensitively.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public":
		return VisibilityPublic, nil
	case "private":
		return VisibilityPrivate, nil
	}
	return 0, fmt.Errorf("%w: visibility must be either 'Public' or 'Private'", ErrInvalidInput)
}

func (v Visibility) String() string {
	if v == VisibilityPrivate {
		return "Private"
	}
	return "Public"
}

func (v Visibility) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Visibility) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseVisibility(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Event is a scheduled gathering published by an organizer.
// Capacity nil means unlimited.
// swagger:model Event
type Event struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartsAt    time.Time  `json:"starts_at"`
	Location    string     `json:"location"`
	Capacity    *int       `json:"capacity"`
	Visibility  Visibility `json:"visibility"`
	OrganizerID string     `json:"organizer_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name, description, location string, startsAt time.Time, capacity *int, visibility Visibility, organizerID string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:        name,
		Description: description,
		StartsAt:    startsAt,
		Location:    location,
		Capacity:    capacity,
		Visibility:  visibility,
		OrganizerID: organizerID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// HasCapacityFor reports whether the event can take another member when count members have joined.
func (e *Event) HasCapacityFor(count int) bool {
	return e.Capacity == nil || count < *e.Capacity
}

// PublicEventFilter narrows the public listing. Empty fields do not filter.
type PublicEventFilter struct {
	Search string
	Tags   []string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	ListPublic(ctx context.Context, filter PublicEventFilter, params PaginationParams) ([]*Event, error)
	CountPublic(ctx context.Context, filter PublicEventFilter) (int, error)
	// ListForUser returns events organized or joined by the user, ordered by start time.
	ListForUser(ctx context.Context, userID string) ([]*Event, error)
}

// Optional is a field of a partial update where "absent" and "explicit null" differ.
// Set is false when the field was omitted; Null is true when it was sent as null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns an Optional that was explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(b, &o.Value)
}

// Ptr returns nil for an explicit null and a pointer to the value otherwise.
func (o Optional[T]) Ptr() *T {
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// CreateEventInput holds the organizer-supplied fields of a new event.
type CreateEventInput struct {
	Title       string
	Description string
	StartsAt    time.Time
	Location    string
	Capacity    *int
	Visibility  string
	Tags        []string
}

// UpdateEventInput is a partial update; nil pointers leave the field unchanged.
// Tags, when non-nil, replaces the whole tag set (an empty slice clears it).
type UpdateEventInput struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	Location    *string
	Capacity    Optional[int]
	Visibility  *string
	Tags        *[]string
}

// EventSummary is the list representation of an event.
// swagger:model EventSummary
type EventSummary struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	StartsAt         time.Time  `json:"starts_at"`
	Location         string     `json:"location"`
	Capacity         *int       `json:"capacity"`
	Visibility       Visibility `json:"visibility"`
	OrganizerID      string     `json:"organizer_id"`
	ParticipantCount int        `json:"participant_count"`
	Tags             []*Tag     `json:"tags"`
}

// EventDetails is the full representation of an event.
// swagger:model EventDetails
type EventDetails struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	StartsAt         time.Time  `json:"starts_at"`
	Location         string     `json:"location"`
	Capacity         *int       `json:"capacity"`
	Visibility       Visibility `json:"visibility"`
	OrganizerID      string     `json:"organizer_id"`
	OrganizerName    string     `json:"organizer_name"`
	ParticipantNames []string   `json:"participant_names"`
	ParticipantCount int        `json:"participant_count"`
	Tags             []*Tag     `json:"tags"`
}

// PublicEventQuery is the input of the public listing.
type PublicEventQuery struct {
	Search   string
	Tags     []string
	Page     int
	PageSize int
}

// EventPage is one page of public event summaries.
// swagger:model EventPage
type EventPage struct {
	Events     []*EventSummary `json:"events"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// EventService defines discovery and organizer-only mutation of events.
type EventService interface {
	ListPublicEvents(ctx context.Context, query PublicEventQuery) (*EventPage, error)
	GetEventDetails(ctx context.Context, eventID string) (*EventDetails, error)
	ListMyEvents(ctx context.Context, userID string) ([]*EventSummary, error)
	CreateEvent(ctx context.Context, input CreateEventInput, organizerID string) (*EventDetails, error)
	UpdateEvent(ctx context.Context, eventID string, input UpdateEventInput, userID string) (*EventDetails, error)
	DeleteEvent(ctx context.Context, eventID, userID string) error
	ListTags(ctx context.Context) ([]*Tag, error)
}
