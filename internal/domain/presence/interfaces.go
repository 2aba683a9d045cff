package presence

import (
	"context"
	"time"
)

// Repository persists presence rows. Upsert must be a single statement so
// concurrent heartbeats from the same user resolve last-write-wins.
type Repository interface {
	Upsert(ctx context.Context, projectID, userID string, seenAt time.Time) error
	ListActive(ctx context.Context, projectID string, cutoff time.Time) ([]string, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
