package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidyboard/tidyboard/internal/repository"
)

// Service owns acquisition, release, and status of the per-project
// organize lock. All coordination state lives in the repository so any
// number of service replicas can run concurrently.
type Service struct {
	repo   Repository
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a lock service. A non-positive ttl falls back to
// DefaultTTL.
func NewService(repo Repository, ttl time.Duration, logger *slog.Logger, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{repo: repo, ttl: ttl, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire attempts to take the organize lock for a project. The attempt is
// one conditional write; when it reports no effect a valid lock already
// existed and the current holder is re-read for display.
func (s *Service) Acquire(ctx context.Context, projectID, holderID, holderName string) (AcquireResult, error) {
	if strings.TrimSpace(projectID) == "" || strings.TrimSpace(holderID) == "" {
		return AcquireResult{}, ErrInvalidInput
	}

	now := s.now()
	won, err := s.repo.UpsertIfAbsentOrExpired(ctx, projectID, holderID, holderName, now.Add(s.ttl), now)
	if err != nil {
		return AcquireResult{}, fmt.Errorf("acquiring lock: %w", err)
	}
	if won {
		if s.logger != nil {
			s.logger.Info("organize lock acquired", "project", projectID, "holder", holderID)
		}
		return AcquireResult{Granted: true}, nil
	}

	current, err := s.repo.Get(ctx, projectID)
	if err != nil {
		// The holder released between our write and this read; the caller
		// simply retries on its next attempt.
		if errors.Is(err, repository.ErrNotFound) {
			return AcquireResult{Granted: false}, nil
		}
		return AcquireResult{}, fmt.Errorf("reading lock holder: %w", err)
	}
	return AcquireResult{Granted: false, Holder: current.HolderName}, nil
}

// Release drops the lock for a project. It is idempotent and does not
// verify the caller against the current holder: any project participant may
// release, and a spurious release only shortens a lock window.
func (s *Service) Release(ctx context.Context, projectID string) error {
	if strings.TrimSpace(projectID) == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("organize lock released", "project", projectID)
	}
	return nil
}

// Status reports the lock state for display. A row past its expiry reads
// as unlocked.
func (s *Service) Status(ctx context.Context, projectID string) (Status, error) {
	current, err := s.repo.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Status{Locked: false}, nil
		}
		return Status{}, fmt.Errorf("reading lock: %w", err)
	}
	if current.Expired(s.now()) {
		return Status{Locked: false}, nil
	}
	expires := current.ExpiresAt
	return Status{Locked: true, Holder: current.HolderName, ExpiresAt: &expires}, nil
}

// TTL returns the configured lock lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}
