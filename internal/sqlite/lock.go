package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tidyboard/tidyboard/internal/domain/lock"
	"github.com/tidyboard/tidyboard/internal/repository"
)

// LockRepository implements repository.LockRepository for SQLite
type LockRepository struct {
	db *DB
}

// NewLockRepository creates a new LockRepository
func NewLockRepository(db *DB) *LockRepository {
	return &LockRepository{db: db}
}

// UpsertIfAbsentOrExpired inserts or replaces the lock row in one atomic
// statement. The DO UPDATE branch only fires when the stored expiry is at
// or before now, so two replicas racing for the same project cannot both
// win: whichever statement the storage layer serializes first takes the
// row, the other reports zero rows affected.
func (r *LockRepository) UpsertIfAbsentOrExpired(ctx context.Context, projectID, holderID, holderName string, expiresAt, now time.Time) (bool, error) {
	query := `
		INSERT INTO organize_locks (project_id, holder_id, holder_name, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			holder_id = excluded.holder_id,
			holder_name = excluded.holder_name,
			expires_at = excluded.expires_at
		WHERE organize_locks.expires_at <= ?
	`

	result, err := r.db.ExecContext(ctx, query,
		projectID,
		holderID,
		holderName,
		expiresAt.UnixMilli(),
		now.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert lock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Get retrieves the lock row for a project, expired or not
func (r *LockRepository) Get(ctx context.Context, projectID string) (*lock.Lock, error) {
	query := `
		SELECT project_id, holder_id, holder_name, expires_at
		FROM organize_locks
		WHERE project_id = ?
	`

	var row lock.Lock
	var expiresAt int64
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&row.ProjectID,
		&row.HolderID,
		&row.HolderName,
		&expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lock: %w", err)
	}

	row.ExpiresAt = time.UnixMilli(expiresAt)
	return &row, nil
}

// Delete removes the lock row; deleting an absent row is not an error
func (r *LockRepository) Delete(ctx context.Context, projectID string) error {
	query := `DELETE FROM organize_locks WHERE project_id = ?`

	if _, err := r.db.ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("failed to delete lock: %w", err)
	}
	return nil
}
