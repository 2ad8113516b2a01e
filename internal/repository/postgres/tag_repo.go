package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventhub/internal/domain"

	"github.com/lib/pq"
)

type tagRepository struct {
	DB *sql.DB
}

// NewTagRepository returns a domain.TagRepository implemented with Postgres.
func NewTagRepository(db *sql.DB) domain.TagRepository {
	return &tagRepository{DB: db}
}

func (r *tagRepository) FindOrCreate(ctx context.Context, names []string) ([]*domain.Tag, error) {
	names = domain.NormalizeTagNames(names)
	if len(names) == 0 {
		return []*domain.Tag{}, nil
	}
	// Concurrent creators of the same name race on the unique index; the loser's row is skipped.
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO tags (name) SELECT unnest($1::text[]) ON CONFLICT (name) DO NOTHING`,
		pq.Array(names)); err != nil {
		return nil, fmt.Errorf("insert tags: %w", err)
	}
	tags, err := r.queryTags(ctx, `SELECT id, name FROM tags WHERE name = ANY($1)`, pq.Array(names))
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*domain.Tag, len(tags))
	for _, t := range tags {
		byName[t.Name] = t
	}
	out := make([]*domain.Tag, 0, len(names))
	for _, n := range names {
		t, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("tag %q missing after insert", n)
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *tagRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Tag, error) {
	return r.queryTags(ctx,
		`SELECT t.id, t.name FROM tags t
		 JOIN event_tags et ON et.tag_id = t.id
		 WHERE et.event_id = $1
		 ORDER BY t.name`, eventID)
}

func (r *tagRepository) ListAll(ctx context.Context) ([]*domain.Tag, error) {
	return r.queryTags(ctx, `SELECT id, name FROM tags ORDER BY name`)
}

func (r *tagRepository) SetForEvent(ctx context.Context, eventID string, tagIDs []string) (err error) {
	ids := uniqueStrings(tagIDs)
	if len(ids) > domain.MaxEventTags {
		return domain.ErrTooManyTags
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM event_tags WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("delete event tags: %w", err)
	}
	if len(ids) > 0 {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO event_tags (event_id, tag_id)
			 SELECT $1, unnest($2::uuid[])
			 ON CONFLICT (event_id, tag_id) DO NOTHING`,
			eventID, pq.Array(ids)); err != nil {
			return fmt.Errorf("insert event tags: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit event tags: %w", err)
	}
	return nil
}

func (r *tagRepository) queryTags(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tags: %w", err)
	}
	defer rows.Close()

	tags := make([]*domain.Tag, 0)
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
