package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/sync/errgroup"
)

var (
	sharedOnce    sync.Once
	sharedInitErr error
	sharedDB      *sql.DB
)

// integrationDB starts one PostgreSQL container per test binary and applies the migrations.
// Tests using it are skipped unless EVENTHUB_INTEGRATION=1.
func integrationDB(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv("EVENTHUB_INTEGRATION") != "1" {
		t.Skip("set EVENTHUB_INTEGRATION=1 to run PostgreSQL integration tests")
	}
	sharedOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("eventhub"),
			tcpostgres.WithUsername("eventhub"),
			tcpostgres.WithPassword("eventhub"),
			tcpostgres.BasicWaitStrategies(),
			testcontainers.WithReuseByName("eventhub-integration-db"),
		)
		if err != nil {
			sharedInitErr = err
			return
		}
		dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			sharedInitErr = err
			return
		}
		if err := MigrateUp(dbURL); err != nil {
			sharedInitErr = err
			return
		}
		sharedDB, sharedInitErr = Open(ctx, dbURL, 30)
	})
	require.NoError(t, sharedInitErr)
	resetDatabase(t, sharedDB)
	return sharedDB
}

func resetDatabase(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE event_tags, participants, tags, events, users CASCADE`)
	require.NoError(t, err)
}

func createUsers(t *testing.T, ctx context.Context, repo domain.UserRepository, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range n {
		u := domain.NewUser(fmt.Sprintf("user%d@example.com", i), fmt.Sprintf("User %d", i), "hash", "salt", time.Now())
		require.NoError(t, repo.Create(ctx, u))
		ids[i] = u.ID
	}
	return ids
}

func createEvent(t *testing.T, ctx context.Context, repo domain.EventRepository, organizerID string, capacity *int, visibility domain.Visibility) *domain.Event {
	t.Helper()
	now := time.Now().UTC()
	e := domain.NewEvent("Integration", "integration event", "Kyiv", now.Add(48*time.Hour), capacity, visibility, organizerID, now, now)
	require.NoError(t, repo.Create(ctx, e))
	return e
}

func TestIntegration_ConcurrentJoinsRespectCapacity(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	events := NewEventRepository(db)
	participants := NewParticipantRepository(db)

	ids := createUsers(t, ctx, users, 25)
	capacity := 4
	event := createEvent(t, ctx, events, ids[0], &capacity, domain.VisibilityPublic)

	var mu sync.Mutex
	outcomes := map[string]int{}
	var g errgroup.Group
	for _, id := range ids[1:] {
		for range 2 {
			g.Go(func() error {
				err := participants.AddWithinCapacity(ctx, id, event.ID)
				key := "joined"
				switch {
				case err == nil:
				case domain.IsConflict(err):
					key = err.Error()
				default:
					return err
				}
				mu.Lock()
				outcomes[key]++
				mu.Unlock()
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())

	count, err := participants.Count(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, capacity, count)
	assert.Equal(t, capacity, outcomes["joined"])
	assert.Equal(t, 48, outcomes["joined"]+outcomes[domain.ErrEventFull.Error()]+outcomes[domain.ErrAlreadyParticipating.Error()])
}

func TestIntegration_UnknownUserIsNotFound(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	events := NewEventRepository(db)
	participants := NewParticipantRepository(db)

	const stranger = "0e5b7f2c-3d41-4a9e-b6c8-71f2d0a9e354"
	ids := createUsers(t, ctx, NewUserRepository(db), 1)
	event := createEvent(t, ctx, events, ids[0], nil, domain.VisibilityPublic)

	err := participants.AddWithinCapacity(ctx, stranger, event.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	now := time.Now().UTC()
	orphan := domain.NewEvent("Orphan", "", "Kyiv", now.Add(time.Hour), nil, domain.VisibilityPublic, stranger, now, now)
	require.ErrorIs(t, events.Create(ctx, orphan), domain.ErrUserNotFound)

	count, err := participants.Count(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIntegration_TagReplacementIsAtomic(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	events := NewEventRepository(db)
	tags := NewTagRepository(db)

	ids := createUsers(t, ctx, users, 1)
	event := createEvent(t, ctx, events, ids[0], nil, domain.VisibilityPublic)

	initial, err := tags.FindOrCreate(ctx, []string{"Tech", "Design"})
	require.NoError(t, err)
	require.NoError(t, tags.SetForEvent(ctx, event.ID, []string{initial[0].ID, initial[1].ID}))

	six, err := tags.FindOrCreate(ctx, []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)
	sixIDs := make([]string, len(six))
	for i, tag := range six {
		sixIDs[i] = tag.ID
	}
	require.ErrorIs(t, tags.SetForEvent(ctx, event.ID, sixIDs), domain.ErrTooManyTags)

	linked, err := tags.ListByEventID(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, linked, 2)
	assert.Equal(t, "design", linked[0].Name)
	assert.Equal(t, "tech", linked[1].Name)

	require.NoError(t, tags.SetForEvent(ctx, event.ID, sixIDs[:5]))
	linked, err = tags.ListByEventID(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 5)
}

func TestIntegration_FindOrCreateIsIdempotent(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	tags := NewTagRepository(db)

	var g errgroup.Group
	results := make([][]*domain.Tag, 8)
	for i := range results {
		g.Go(func() error {
			var err error
			results[i], err = tags.FindOrCreate(ctx, []string{"Go", " go ", "Cloud"})
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, r := range results {
		require.Len(t, r, 2)
		assert.Equal(t, results[0][0].ID, r[0].ID)
		assert.Equal(t, results[0][1].ID, r[1].ID)
	}
	all, err := tags.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIntegration_PublicListingFilters(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	events := NewEventRepository(db)
	tags := NewTagRepository(db)

	ids := createUsers(t, ctx, users, 1)
	public := createEvent(t, ctx, events, ids[0], nil, domain.VisibilityPublic)
	private := createEvent(t, ctx, events, ids[0], nil, domain.VisibilityPrivate)
	tech, err := tags.FindOrCreate(ctx, []string{"tech"})
	require.NoError(t, err)
	require.NoError(t, tags.SetForEvent(ctx, public.ID, []string{tech[0].ID}))
	require.NoError(t, tags.SetForEvent(ctx, private.ID, []string{tech[0].ID}))

	filter := domain.PublicEventFilter{Search: "INTEGRATION", Tags: []string{"Tech", "design"}}
	listed, err := events.ListPublic(ctx, filter, domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, public.ID, listed[0].ID)

	total, err := events.CountPublic(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	mine, err := events.ListForUser(ctx, ids[0])
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
