package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tidyboard/tidyboard/internal/config"
	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/domain/lock"
	"github.com/tidyboard/tidyboard/internal/domain/presence"
	"github.com/tidyboard/tidyboard/internal/sqlite"
	"github.com/tidyboard/tidyboard/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := ensureSchema(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	lockRepo := sqlite.NewLockRepository(db)
	presenceRepo := sqlite.NewPresenceRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	playerRepo := sqlite.NewPlayerRepository(db)
	lineRepo := sqlite.NewLineRepository(db)

	lockSvc := lock.NewService(lockRepo, cfg.Lock.TTL(), logger)
	presenceSvc := presence.NewService(presenceRepo, cfg.Presence.Window(), logger)
	boardSvc := board.NewService(projectRepo, taskRepo, playerRepo, lineRepo, logger)

	resolver := &tokenResolver{db: db}
	router := transport.NewServer(lockSvc, presenceSvc, boardSvc, transport.AuthMiddleware(resolver))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if interval := cfg.Presence.CleanupInterval(); interval > 0 {
		go runPresenceJanitor(ctx, logger, presenceSvc, interval)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer, cancel)
}

// runPresenceJanitor prunes presence rows unseen for a day. Purely a
// storage-growth bound; active-set reads already filter by recency.
func runPresenceJanitor(ctx context.Context, logger *slog.Logger, svc *presence.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PruneStale(ctx, 24*time.Hour); err != nil {
				logger.Warn("presence cleanup failed", "error", err)
			}
		}
	}
}

func ensureSchema(db *sqlite.DB) error {
	// A fresh database has no tables yet; an existing one keeps its schema.
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='projects'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if count > 0 {
		return nil
	}
	return db.RunMigrations()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, cancel context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// tokenResolver resolves bearer tokens against the users table.
type tokenResolver struct {
	db *sqlite.DB
}

func (r *tokenResolver) ResolveIdentity(ctx context.Context, token string) (transport.Identity, error) {
	hash := hashToken(token)
	var identity transport.Identity
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name FROM users WHERE token_hash = ?`, hash,
	).Scan(&identity.ID, &identity.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return transport.Identity{}, transport.ErrUnauthorized
	}
	if err != nil {
		return transport.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return identity, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
