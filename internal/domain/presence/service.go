package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrInvalidInput indicates a missing project or user identifier.
var ErrInvalidInput = errors.New("invalid presence input")

// Service records heartbeats and derives the active-collaborator set.
type Service struct {
	repo   Repository
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a presence service. A non-positive window falls back
// to DefaultWindow.
func NewService(repo Repository, window time.Duration, logger *slog.Logger, opts ...Option) *Service {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &Service{repo: repo, window: window, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Heartbeat marks a user as actively viewing a project right now.
func (s *Service) Heartbeat(ctx context.Context, projectID, userID string) error {
	if strings.TrimSpace(projectID) == "" || strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Upsert(ctx, projectID, userID, s.now()); err != nil {
		return fmt.Errorf("recording heartbeat: %w", err)
	}
	return nil
}

// ListActive returns the IDs of users last seen within the window. A
// non-positive window uses the configured default. The result is never nil.
func (s *Service) ListActive(ctx context.Context, projectID string, window time.Duration) ([]string, error) {
	if window <= 0 {
		window = s.window
	}
	users, err := s.repo.ListActive(ctx, projectID, s.now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}
	if users == nil {
		users = []string{}
	}
	return users, nil
}

// PruneStale deletes presence rows unseen for longer than the horizon.
// Purely a storage-growth bound; correctness never depends on it.
func (s *Service) PruneStale(ctx context.Context, horizon time.Duration) (int64, error) {
	if horizon <= 0 {
		return 0, fmt.Errorf("prune horizon must be positive")
	}
	removed, err := s.repo.DeleteBefore(ctx, s.now().Add(-horizon))
	if err != nil {
		return 0, fmt.Errorf("pruning presence rows: %w", err)
	}
	if removed > 0 && s.logger != nil {
		s.logger.Info("pruned stale presence rows", "removed", removed)
	}
	return removed, nil
}
