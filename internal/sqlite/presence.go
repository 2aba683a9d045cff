package sqlite

import (
	"context"
	"fmt"
	"time"
)

// PresenceRepository implements repository.PresenceRepository for SQLite
type PresenceRepository struct {
	db *DB
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(db *DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// Upsert records a heartbeat for a (project, user) pair. Last write wins
// under concurrent heartbeats from the same caller.
func (r *PresenceRepository) Upsert(ctx context.Context, projectID, userID string, seenAt time.Time) error {
	query := `
		INSERT INTO presence (project_id, user_id, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT(project_id, user_id) DO UPDATE SET
			last_seen = excluded.last_seen
	`

	if _, err := r.db.ExecContext(ctx, query, projectID, userID, seenAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}
	return nil
}

// ListActive returns user IDs last seen at or after the cutoff
func (r *PresenceRepository) ListActive(ctx context.Context, projectID string, cutoff time.Time) ([]string, error) {
	query := `
		SELECT user_id
		FROM presence
		WHERE project_id = ? AND last_seen >= ?
		ORDER BY user_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, cutoff.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list presence: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan presence row: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating presence rows: %w", err)
	}

	return users, nil
}

// DeleteBefore removes rows last seen before the cutoff, returning the
// number removed. Storage-growth bound only; never required for
// correctness.
func (r *PresenceRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM presence WHERE last_seen < ?`

	result, err := r.db.ExecContext(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete presence rows: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}
