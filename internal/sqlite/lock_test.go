package sqlite

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidyboard/tidyboard/internal/repository"
)

func TestLockRepository_AcquireAndGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	won, err := repo.UpsertIfAbsentOrExpired(ctx, "p1", "u1", "Alice", now.Add(time.Minute), now)
	require.NoError(t, err)
	require.True(t, won)

	row, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "u1", row.HolderID)
	require.Equal(t, "Alice", row.HolderName)
	require.Equal(t, now.Add(time.Minute).UnixMilli(), row.ExpiresAt.UnixMilli())
}

func TestLockRepository_SecondAcquireDenied(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	won, err := repo.UpsertIfAbsentOrExpired(ctx, "p1", "u1", "Alice", now.Add(time.Minute), now)
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.UpsertIfAbsentOrExpired(ctx, "p1", "u2", "Bob", now.Add(time.Minute), now)
	require.NoError(t, err)
	require.False(t, won)

	// Holder is unchanged
	row, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Alice", row.HolderName)
}

func TestLockRepository_ExpiredRowIsReplaced(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)

	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	won, err := repo.UpsertIfAbsentOrExpired(ctx, "p1", "u1", "Alice", t0.Add(time.Minute), t0)
	require.NoError(t, err)
	require.True(t, won)

	// 61 seconds later the row is past expiry and a new holder takes it
	t1 := t0.Add(61 * time.Second)
	won, err = repo.UpsertIfAbsentOrExpired(ctx, "p1", "u2", "Bob", t1.Add(time.Minute), t1)
	require.NoError(t, err)
	require.True(t, won)

	row, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Bob", row.HolderName)
}

func TestLockRepository_DeleteIsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)

	require.NoError(t, repo.Delete(ctx, "p1"))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	won, err := repo.UpsertIfAbsentOrExpired(ctx, "p1", "u1", "Alice", now.Add(time.Minute), now)
	require.NoError(t, err)
	require.True(t, won)

	require.NoError(t, repo.Delete(ctx, "p1"))
	require.NoError(t, repo.Delete(ctx, "p1"))

	_, err = repo.Get(ctx, "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLockRepository_LocksAreScopedPerProject(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	won, err := repo.UpsertIfAbsentOrExpired(ctx, "p1", "u1", "Alice", now.Add(time.Minute), now)
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.UpsertIfAbsentOrExpired(ctx, "p2", "u2", "Bob", now.Add(time.Minute), now)
	require.NoError(t, err)
	require.True(t, won, "a lock on one project must not block another")
}

// TestLockRepository_ConcurrentAcquire issues many simultaneous acquire
// attempts for the same project within one TTL window and requires exactly
// one winner: the write is a single conditional statement, so no pair of
// racing callers can both observe "no valid lock".
func TestLockRepository_ConcurrentAcquire(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewLockRepository(db)

	now := time.Now()
	numCallers := 10

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numCallers; i++ {
		wg.Add(1)
		go func(caller int) {
			defer wg.Done()
			holder := string(rune('A' + caller))
			won, err := repo.UpsertIfAbsentOrExpired(ctx, "p1", holder, "User "+holder, now.Add(time.Minute), now)
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			if won {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load(), "exactly one concurrent acquire must win")

	// The stored row belongs to the winner and is valid
	row, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, row.ExpiresAt.After(now))
}
