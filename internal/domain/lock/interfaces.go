package lock

import (
	"context"
	"time"
)

// Repository persists lock rows. UpsertIfAbsentOrExpired must be a single
// atomic conditional write: it inserts or replaces the row only when no row
// exists for the project or the existing row's expiry is at or before now,
// and reports whether the write took effect. A read-then-write pair is not
// an acceptable implementation because service instances are replicated.
type Repository interface {
	UpsertIfAbsentOrExpired(ctx context.Context, projectID, holderID, holderName string, expiresAt, now time.Time) (bool, error)
	Get(ctx context.Context, projectID string) (*Lock, error)
	Delete(ctx context.Context, projectID string) error
}
