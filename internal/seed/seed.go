// Package seed loads demo users, tags and events into an empty database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/domain"
)

type demoUser struct {
	key, name, email, password string
}

type demoEvent struct {
	name, description, location string
	in                          time.Duration
	capacity                    *int
	visibility                  domain.Visibility
	organizer                   string
	tags                        []string
	members                     []string
}

var demoUsers = []demoUser{
	{key: "alice", name: "Alice Smith", email: "alice@example.com", password: "password123"},
	{key: "bob", name: "Bob Johnson", email: "bob@example.com", password: "password456"},
}

var demoTags = []string{"Tech", "Design", "Meetup", "Conference"}

func capacity(n int) *int { return &n }

const day = 24 * time.Hour

var demoEvents = []demoEvent{
	{
		name: "Angular Conf", description: "Big conference for Angular devs.", location: "Kyiv",
		in: 10 * day, capacity: capacity(100), organizer: "alice",
		tags: []string{"Tech", "Conference"}, members: []string{"bob"},
	},
	{
		name: "Design Workshop", description: "UI/UX workshop.", location: "Lviv",
		in: 20 * day, capacity: capacity(50), organizer: "bob",
		tags: []string{"Design"}, members: []string{"alice"},
	},
	{
		name: ".NET Meetup", description: "Monthly meetup.", location: "Online",
		in: 30 * day, organizer: "alice",
		tags: []string{"Tech", "Meetup"},
	},
	{
		name: "AI Talk (Private)", description: "Internal meeting.", location: "Office",
		in: 5 * day, capacity: capacity(20), visibility: domain.VisibilityPrivate, organizer: "bob",
		tags: []string{"Tech"},
	},
}

// Result reports what a Seed run created.
type Result struct {
	Users   map[string]string // key -> user id
	Tags    int
	Events  int
	Skipped bool
}

// Seeder writes the demo data set through the repositories.
type Seeder struct {
	Users        domain.UserRepository
	Events       domain.EventRepository
	Tags         domain.TagRepository
	Participants domain.ParticipantRepository
	Hasher       domain.PasswordHasher
	Logger       *slog.Logger
	Now          func() time.Time
}

// Seed creates the demo users and tags if missing, then the demo events with their
// tags and memberships. Events are skipped when the demo users already own or joined any.
func (s *Seeder) Seed(ctx context.Context) (*Result, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	res := &Result{Users: make(map[string]string, len(demoUsers))}

	for _, u := range demoUsers {
		id, err := s.ensureUser(ctx, u, now())
		if err != nil {
			return nil, err
		}
		res.Users[u.key] = id
	}

	tags, err := s.Tags.FindOrCreate(ctx, demoTags)
	if err != nil {
		return nil, fmt.Errorf("seed tags: %w", err)
	}
	res.Tags = len(tags)
	tagIDs := make(map[string]string, len(tags))
	for _, t := range tags {
		tagIDs[t.Name] = t.ID
	}

	for _, id := range res.Users {
		existing, err := s.Events.ListForUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check seeded events: %w", err)
		}
		if len(existing) > 0 {
			s.Logger.InfoContext(ctx, "events already seeded")
			res.Skipped = true
			return res, nil
		}
	}

	for _, de := range demoEvents {
		if err := s.createEvent(ctx, de, res.Users, tagIDs, now()); err != nil {
			return nil, err
		}
		res.Events++
	}
	s.Logger.InfoContext(ctx, "database seeded", "users", len(res.Users), "tags", res.Tags, "events", res.Events)
	return res, nil
}

func (s *Seeder) ensureUser(ctx context.Context, u demoUser, now time.Time) (string, error) {
	existing, err := s.Users.GetByEmail(ctx, u.email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return "", fmt.Errorf("look up %s: %w", u.email, err)
	}
	salt, err := s.Hasher.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.Hasher.Hash(salt, u.password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.NewUser(u.email, u.name, hash, salt, now)
	if err := s.Users.Create(ctx, user); err != nil {
		return "", fmt.Errorf("create user %s: %w", u.email, err)
	}
	return user.ID, nil
}

func (s *Seeder) createEvent(ctx context.Context, de demoEvent, users, tagIDs map[string]string, now time.Time) error {
	event := domain.NewEvent(de.name, de.description, de.location, now.Add(de.in).UTC().Truncate(time.Second),
		de.capacity, de.visibility, users[de.organizer], now, now)
	if err := s.Events.Create(ctx, event); err != nil {
		return fmt.Errorf("create event %q: %w", de.name, err)
	}
	ids := make([]string, 0, len(de.tags))
	for _, name := range domain.NormalizeTagNames(de.tags) {
		ids = append(ids, tagIDs[name])
	}
	if err := s.Tags.SetForEvent(ctx, event.ID, ids); err != nil {
		return fmt.Errorf("tag event %q: %w", de.name, err)
	}
	for _, m := range de.members {
		if err := s.Participants.Add(ctx, users[m], event.ID); err != nil {
			return fmt.Errorf("add member to %q: %w", de.name, err)
		}
	}
	return nil
}
