package testserver

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/domain/lock"
	"github.com/tidyboard/tidyboard/internal/domain/presence"
	"github.com/tidyboard/tidyboard/internal/sqlite"
	"github.com/tidyboard/tidyboard/internal/transport"
)

// TestServer bundles a full HTTP stack over an in-memory database. The
// clock drives lock and presence decisions so tests can cross TTL
// boundaries without sleeping.
type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Locks  *lock.Service
	Board  *board.Service

	clock *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// Advance moves the test clock forward.
func (ts *TestServer) Advance(d time.Duration) {
	ts.clock.now = ts.clock.now.Add(d)
}

// New starts a test server with the given lock TTL and presence window.
func New(t *testing.T, ttl, window time.Duration) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	db.SetMaxOpenConns(1)

	clock := &fakeClock{now: time.Now()}

	lockSvc := lock.NewService(sqlite.NewLockRepository(db), ttl, nil, lock.WithClock(clock.Now))
	presenceSvc := presence.NewService(sqlite.NewPresenceRepository(db), window, nil, presence.WithClock(clock.Now))
	boardSvc := board.NewService(
		sqlite.NewProjectRepository(db),
		sqlite.NewTaskRepository(db),
		sqlite.NewPlayerRepository(db),
		sqlite.NewLineRepository(db),
		nil,
	)

	resolver := &userResolver{db: db}
	server := httptest.NewServer(transport.NewServer(lockSvc, presenceSvc, boardSvc, transport.AuthMiddleware(resolver)))

	ts := &TestServer{
		Server: server,
		DB:     db,
		Locks:  lockSvc,
		Board:  boardSvc,
		clock:  clock,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddUser registers a user and returns the bearer token that resolves to it.
func (ts *TestServer) AddUser(id, displayName string) (string, error) {
	token := "token-" + id
	_, err := ts.DB.Exec(
		`INSERT INTO users (id, display_name, token_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, displayName, hashToken(token), time.Now(),
	)
	return token, err
}

type userResolver struct {
	db *sqlite.DB
}

func (r *userResolver) ResolveIdentity(ctx context.Context, token string) (transport.Identity, error) {
	hash := hashToken(token)
	var identity transport.Identity
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name FROM users WHERE token_hash = ?`, hash,
	).Scan(&identity.ID, &identity.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return transport.Identity{}, transport.ErrUnauthorized
	}
	if err != nil {
		return transport.Identity{}, err
	}
	return identity, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
