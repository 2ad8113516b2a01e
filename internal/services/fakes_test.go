package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"eventhub/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.Event
	nextID   int
	err      error // if set, every method returns this error
	updates  int
	onDelete func(id string)
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	f.updates++
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	if f.err != nil {
		f.mu.Unlock()
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		f.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	f.mu.Unlock()
	if f.onDelete != nil {
		f.onDelete(id)
	}
	return nil
}

func (f *fakeEventRepo) public() []*domain.Event {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.Visibility != domain.VisibilityPublic {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out
}

func (f *fakeEventRepo) ListPublic(ctx context.Context, filter domain.PublicEventFilter, params domain.PaginationParams) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	all := f.public()
	start := params.Offset()
	if start >= len(all) {
		return []*domain.Event{}, nil
	}
	end := min(start+params.PageSize, len(all))
	return all[start:end], nil
}

func (f *fakeEventRepo) CountPublic(ctx context.Context, filter domain.PublicEventFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return len(f.public()), nil
}

func (f *fakeEventRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OrganizerID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

// fakeTagRepo is an in-memory TagRepository for tests.
type fakeTagRepo struct {
	mu       sync.Mutex
	byName   map[string]*domain.Tag
	links    map[string][]string // event id -> tag ids
	nextID   int
	setErr   error
	setCalls int
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{
		byName: make(map[string]*domain.Tag),
		links:  make(map[string][]string),
		nextID: 1,
	}
}

func (f *fakeTagRepo) FindOrCreate(ctx context.Context, names []string) ([]*domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Tag, 0, len(names))
	for _, n := range domain.NormalizeTagNames(names) {
		t, ok := f.byName[n]
		if !ok {
			t = &domain.Tag{ID: fmt.Sprintf("tag-%d", f.nextID), Name: n}
			f.nextID++
			f.byName[n] = t
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTagRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Tag, 0)
	for _, id := range f.links[eventID] {
		for _, t := range f.byName {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTagRepo) SetForEvent(ctx context.Context, eventID string, tagIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	seen := map[string]bool{}
	var ids []string
	for _, id := range tagIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) > domain.MaxEventTags {
		return domain.ErrTooManyTags
	}
	f.links[eventID] = ids
	return nil
}

func (f *fakeTagRepo) ListAll(ctx context.Context) ([]*domain.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Tag, 0, len(f.byName))
	for _, t := range f.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeParticipantRepo keeps memberships in memory. AddWithinCapacity holds the mutex for
// the whole check-and-insert, like the row lock of the Postgres implementation.
type fakeParticipantRepo struct {
	mu      sync.Mutex
	events  *fakeEventRepo
	users   *fakeUserRepo
	members map[string][]string // event id -> user ids in join order
	// yield, when set, runs between the capacity check and the insert.
	yield func()
	// addErr, when set, is returned by AddWithinCapacity after the capacity check.
	addErr error
}

func newFakeParticipantRepo(events *fakeEventRepo, users *fakeUserRepo) *fakeParticipantRepo {
	return &fakeParticipantRepo{
		events:  events,
		users:   users,
		members: make(map[string][]string),
	}
}

func (f *fakeParticipantRepo) indexOf(userID, eventID string) int {
	for i, u := range f.members[eventID] {
		if u == userID {
			return i
		}
	}
	return -1
}

func (f *fakeParticipantRepo) Add(ctx context.Context, userID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexOf(userID, eventID) < 0 {
		f.members[eventID] = append(f.members[eventID], userID)
	}
	return nil
}

func (f *fakeParticipantRepo) AddWithinCapacity(ctx context.Context, userID, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, err := f.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if f.indexOf(userID, eventID) >= 0 {
		return domain.ErrAlreadyParticipating
	}
	if !event.HasCapacityFor(len(f.members[eventID])) {
		return domain.ErrEventFull
	}
	if f.yield != nil {
		f.yield()
	}
	if f.addErr != nil {
		return f.addErr
	}
	f.members[eventID] = append(f.members[eventID], userID)
	return nil
}

func (f *fakeParticipantRepo) Remove(ctx context.Context, userID, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(userID, eventID)
	if i < 0 {
		return false, nil
	}
	m := f.members[eventID]
	f.members[eventID] = append(m[:i:i], m[i+1:]...)
	return true, nil
}

func (f *fakeParticipantRepo) IsMember(ctx context.Context, userID, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexOf(userID, eventID) >= 0, nil
}

func (f *fakeParticipantRepo) Count(ctx context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members[eventID]), nil
}

func (f *fakeParticipantRepo) ListMembers(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Participant, 0, len(f.members[eventID]))
	for _, id := range f.members[eventID] {
		p := &domain.Participant{EventID: eventID, UserID: id}
		if u, err := f.users.GetByID(ctx, id); err == nil {
			p.Name, p.Email = u.Name, u.Email
		}
		out = append(out, p)
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User)}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// fakeEmailService records sent emails.
type fakeEmailService struct {
	mu        sync.Mutex
	joined    []*domain.JoinConfirmationEmailData
	cancelled []*domain.EventCancelledEmailData
	err       error
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{}
}

func (f *fakeEmailService) SendJoinConfirmation(ctx context.Context, data *domain.JoinConfirmationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.joined = append(f.joined, data)
	return nil
}

func (f *fakeEmailService) SendEventCancelled(ctx context.Context, data *domain.EventCancelledEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, data)
	return nil
}

var errDB = errors.New("db error")

// testEnv wires the services to one set of fakes.
type testEnv struct {
	events       *fakeEventRepo
	tags         *fakeTagRepo
	participants *fakeParticipantRepo
	users        *fakeUserRepo
	email        *fakeEmailService
	catalog      domain.EventService
	participate  domain.ParticipationService
}

func newTestEnv() *testEnv {
	users := newFakeUserRepo(
		&domain.User{ID: "alice", Name: "Alice", Email: "alice@example.com"},
		&domain.User{ID: "bob", Name: "Bob", Email: "bob@example.com"},
		&domain.User{ID: "carol", Name: "Carol", Email: "carol@example.com"},
	)
	env := &testEnv{
		events: newFakeEventRepo(),
		tags:   newFakeTagRepo(),
		users:  users,
		email:  newFakeEmailService(),
	}
	env.participants = newFakeParticipantRepo(env.events, users)
	env.events.onDelete = func(id string) {
		env.participants.mu.Lock()
		delete(env.participants.members, id)
		env.participants.mu.Unlock()
	}
	timeout := 5 * time.Second
	env.catalog = NewEventService(env.events, env.tags, env.participants, env.users, env.email, discardLogger(), domain.DefaultPageSize, timeout)
	env.participate = NewParticipationService(env.events, env.participants, env.users, env.email, discardLogger(), timeout)
	return env
}

// createEvent stores an event directly, bypassing validation.
func (e *testEnv) createEvent(organizerID string, capacity *int, visibility domain.Visibility, startsAt time.Time) *domain.Event {
	ev := domain.NewEvent("Event", "", "Kyiv", startsAt, capacity, visibility, organizerID, startsAt, startsAt)
	if err := e.events.Create(context.Background(), ev); err != nil {
		panic(err)
	}
	return ev
}
