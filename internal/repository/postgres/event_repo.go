package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"eventhub/internal/domain"
)

const eventColumns = `e.id, e.name, e.description, e.starts_at, e.location, e.capacity, e.visibility, e.organizer_id, e.created_at, e.updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var capNull sql.NullInt64
	if err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.Location, &capNull,
		&e.Visibility, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if capNull.Valid {
		c := int(capNull.Int64)
		e.Capacity = &c
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, description, starts_at, location, capacity, visibility, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Name, e.Description, e.StartsAt, e.Location, nullableInt(e.Capacity),
		e.Visibility, e.OrganizerID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if isPQCode(err, foreignKeyViolation) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events e
		WHERE e.id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		// A malformed uuid can never match a row.
		if isPQCode(err, invalidTextRepresentation) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select event: %w", err)
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET
			name = $2,
			description = $3,
			starts_at = $4,
			location = $5,
			capacity = $6,
			visibility = $7,
			updated_at = $8
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Name, e.Description, e.StartsAt, e.Location, nullableInt(e.Capacity), e.Visibility, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// publicWhere builds the WHERE clause shared by ListPublic and CountPublic.
// Placeholders start at $1; the returned args match them in order.
func publicWhere(filter domain.PublicEventFilter) (string, []any) {
	clauses := []string{fmt.Sprintf("e.visibility = %d", domain.VisibilityPublic)}
	var args []any
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(e.name ILIKE $%d OR e.description ILIKE $%d OR e.location ILIKE $%d)", n, n, n))
	}
	if tags := domain.NormalizeTagNames(filter.Tags); len(tags) > 0 {
		args = append(args, pq.Array(tags))
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM event_tags et
			JOIN tags t ON t.id = et.tag_id
			WHERE et.event_id = e.id AND t.name = ANY($%d)
		)`, len(args)))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *eventRepository) ListPublic(ctx context.Context, filter domain.PublicEventFilter, params domain.PaginationParams) ([]*domain.Event, error) {
	where, args := publicWhere(filter)
	args = append(args, params.PageSize, params.Offset())
	query := fmt.Sprintf(`SELECT %s
		FROM events e
		%s
		ORDER BY e.starts_at ASC, e.id ASC
		LIMIT $%d OFFSET $%d
	`, eventColumns, where, len(args)-1, len(args))
	return r.queryEvents(ctx, query, args...)
}

func (r *eventRepository) CountPublic(ctx context.Context, filter domain.PublicEventFilter) (int, error) {
	where, args := publicWhere(filter)
	query := `SELECT COUNT(*) FROM events e ` + where
	var total int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count public events: %w", err)
	}
	return total, nil
}

func (r *eventRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events e
		WHERE e.organizer_id = $1
		   OR EXISTS (SELECT 1 FROM participants p WHERE p.event_id = e.id AND p.user_id = $1)
		ORDER BY e.starts_at ASC, e.id ASC
	`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
