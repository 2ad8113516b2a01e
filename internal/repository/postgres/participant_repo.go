package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventhub/internal/domain"
)

const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

// isPQCode reports whether err is a PostgreSQL error with the given SQLSTATE.
func isPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

func (r *participantRepository) Add(ctx context.Context, userID, eventID string) error {
	query := `
		INSERT INTO participants (user_id, event_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, event_id) DO NOTHING
	`
	if _, err := r.DB.ExecContext(ctx, query, userID, eventID); err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// AddWithinCapacity locks the event row so that concurrent joins of the same event run
// one after another; the count it reads is therefore the committed count at insert time.
func (r *participantRepository) AddWithinCapacity(ctx context.Context, userID, eventID string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var capNull sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&capNull)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}
	event := &domain.Event{ID: eventID}
	if capNull.Valid {
		c := int(capNull.Int64)
		event.Capacity = &c
	}

	var member bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID).Scan(&member); err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if member {
		return domain.ErrAlreadyParticipating
	}

	if event.Capacity != nil {
		var count int
		if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE event_id = $1`, eventID).Scan(&count); err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if !event.HasCapacityFor(count) {
			return domain.ErrEventFull
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO participants (user_id, event_id) VALUES ($1, $2)`, userID, eventID); err != nil {
		switch {
		case isPQCode(err, uniqueViolation):
			return domain.ErrAlreadyParticipating
		case isPQCode(err, foreignKeyViolation):
			// The event row is locked, so the missing reference is the user.
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit participant: %w", err)
	}
	return nil
}

func (r *participantRepository) Remove(ctx context.Context, userID, eventID string) (bool, error) {
	query := `DELETE FROM participants WHERE user_id = $1 AND event_id = $2`
	result, err := r.DB.ExecContext(ctx, query, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("delete participant: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete participant rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *participantRepository) IsMember(ctx context.Context, userID, eventID string) (bool, error) {
	var member bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM participants WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return member, nil
}

func (r *participantRepository) Count(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE event_id = $1`, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (r *participantRepository) ListMembers(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	query := `
		SELECT p.event_id, p.user_id, u.name, u.email, p.joined_at
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = $1
		ORDER BY p.joined_at, p.user_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}
	defer rows.Close()
	members := make([]*domain.Participant, 0)
	for rows.Next() {
		m := &domain.Participant{}
		if err := rows.Scan(&m.EventID, &m.UserID, &m.Name, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
