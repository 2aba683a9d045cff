package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/domain/lock"
)

// LockRepository is a mock for repository.LockRepository.
type LockRepository struct {
	mock.Mock
}

func (m *LockRepository) UpsertIfAbsentOrExpired(ctx context.Context, projectID, holderID, holderName string, expiresAt, now time.Time) (bool, error) {
	args := m.Called(ctx, projectID, holderID, holderName, expiresAt, now)
	return args.Bool(0), args.Error(1)
}

func (m *LockRepository) Get(ctx context.Context, projectID string) (*lock.Lock, error) {
	args := m.Called(ctx, projectID)
	if row, ok := args.Get(0).(*lock.Lock); ok {
		return row, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LockRepository) Delete(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

// PresenceRepository is a mock for repository.PresenceRepository.
type PresenceRepository struct {
	mock.Mock
}

func (m *PresenceRepository) Upsert(ctx context.Context, projectID, userID string, seenAt time.Time) error {
	args := m.Called(ctx, projectID, userID, seenAt)
	return args.Error(0)
}

func (m *PresenceRepository) ListActive(ctx context.Context, projectID string, cutoff time.Time) ([]string, error) {
	args := m.Called(ctx, projectID, cutoff)
	if users, ok := args.Get(0).([]string); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PresenceRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *board.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*board.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*board.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

// TaskRepository is a mock for repository.TaskRepository.
type TaskRepository struct {
	mock.Mock
}

func (m *TaskRepository) Create(ctx context.Context, task *board.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *TaskRepository) Get(ctx context.Context, id string) (*board.Task, error) {
	args := m.Called(ctx, id)
	if task, ok := args.Get(0).(*board.Task); ok {
		return task, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) Update(ctx context.Context, task *board.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *TaskRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TaskRepository) ListWithAssignees(ctx context.Context, projectID string) ([]board.Task, error) {
	args := m.Called(ctx, projectID)
	if tasks, ok := args.Get(0).([]board.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TaskRepository) ApplyPredictions(ctx context.Context, projectID string) (int64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TaskRepository) Assign(ctx context.Context, taskID, playerID string) error {
	args := m.Called(ctx, taskID, playerID)
	return args.Error(0)
}

func (m *TaskRepository) Unassign(ctx context.Context, taskID, playerID string) error {
	args := m.Called(ctx, taskID, playerID)
	return args.Error(0)
}

// PlayerRepository is a mock for repository.PlayerRepository.
type PlayerRepository struct {
	mock.Mock
}

func (m *PlayerRepository) Create(ctx context.Context, player *board.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *PlayerRepository) Get(ctx context.Context, id string) (*board.Player, error) {
	args := m.Called(ctx, id)
	if player, ok := args.Get(0).(*board.Player); ok {
		return player, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PlayerRepository) Update(ctx context.Context, player *board.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *PlayerRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PlayerRepository) ListByProject(ctx context.Context, projectID string) ([]board.Player, error) {
	args := m.Called(ctx, projectID)
	if players, ok := args.Get(0).([]board.Player); ok {
		return players, args.Error(1)
	}
	return nil, args.Error(1)
}

// LineRepository is a mock for repository.LineRepository.
type LineRepository struct {
	mock.Mock
}

func (m *LineRepository) Create(ctx context.Context, line *board.Line) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *LineRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *LineRepository) ListByProject(ctx context.Context, projectID string) ([]board.Line, error) {
	args := m.Called(ctx, projectID)
	if lines, ok := args.Get(0).([]board.Line); ok {
		return lines, args.Error(1)
	}
	return nil, args.Error(1)
}
