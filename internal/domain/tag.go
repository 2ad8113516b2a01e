package domain

import (
	"context"
	"strings"
)

// MaxEventTags is the largest number of distinct tags one event may carry.
const MaxEventTags = 5

// Tag represents a named tag shared across events.
// swagger:model Tag
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NormalizeTagNames trims and lower-cases names, drops empty ones and collapses
// duplicates, keeping first-seen order.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// TagRepository defines storage for the tag vocabulary and event–tag links.
type TagRepository interface {
	// FindOrCreate resolves the given names to tags, creating missing ones. Names are normalized first.
	FindOrCreate(ctx context.Context, names []string) ([]*Tag, error)
	// ListByEventID returns all tags associated with the event, ordered by name.
	ListByEventID(ctx context.Context, eventID string) ([]*Tag, error)
	// SetForEvent replaces all tag links of the event in one transaction.
	// Returns ErrTooManyTags without touching storage when more than MaxEventTags distinct ids are given.
	SetForEvent(ctx context.Context, eventID string, tagIDs []string) error
	ListAll(ctx context.Context) ([]*Tag, error)
}
