package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidyboard/tidyboard/internal/repository"
)

// Service handles board entity operations and snapshot assembly.
type Service struct {
	projects ProjectRepository
	tasks    TaskRepository
	players  PlayerRepository
	lines    LineRepository
	logger   *slog.Logger
}

// NewService creates a new board service.
func NewService(projects ProjectRepository, tasks TaskRepository, players PlayerRepository, lines LineRepository, logger *slog.Logger) *Service {
	return &Service{projects: projects, tasks: tasks, players: players, lines: lines, logger: logger}
}

// Snapshot assembles a point-in-time view of a project's board. The four
// reads do not share a transaction; momentary skew between them self-heals
// on the next poll. The task read carries its assignee join internally.
func (s *Service) Snapshot(ctx context.Context, projectID string) (*Snapshot, error) {
	tasks, err := s.tasks.ListWithAssignees(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("reading tasks: %w", err)
	}
	players, err := s.players.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("reading players: %w", err)
	}
	lines, err := s.lines.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("reading project: %w", err)
	}

	if tasks == nil {
		tasks = []Task{}
	}
	if players == nil {
		players = []Player{}
	}
	if lines == nil {
		lines = []Line{}
	}

	return &Snapshot{
		Project: proj,
		Tasks:   tasks,
		Players: players,
		Lines:   lines,
		AsOf:    time.Now().UTC(),
	}, nil
}

// Organize applies every unarchived task's predicted urgency and importance
// to its effective values in one bulk write, returning the number of tasks
// updated. Callers are expected to hold the project's organize lock; the
// operation itself does not take it.
func (s *Service) Organize(ctx context.Context, projectID string) (int64, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrProjectNotFound
		}
		return 0, fmt.Errorf("reading project: %w", err)
	}

	updated, err := s.tasks.ApplyPredictions(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("organizing tasks: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("board organized", "project", projectID, "updated", updated)
	}
	return updated, nil
}

// CreateProjectRequest defines project creation inputs.
type CreateProjectRequest struct {
	Name        string
	Description string
	OwnerID     string
	Type        ProjectType
}

// CreateProject creates a new project.
func (s *Service) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.OwnerID) == "" {
		return nil, ErrInvalidInput
	}
	projType := req.Type
	if projType == "" {
		projType = TypePersonal
	}
	if projType != TypePersonal && projType != TypeTeam {
		return nil, ErrInvalidInput
	}

	proj := &Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
		Type:        projType,
		CreatedAt:   time.Now(),
	}
	if err := s.projects.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return proj, nil
}

// GetProject fetches a project by ID.
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	proj, err := s.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// CreateTaskRequest defines task creation inputs.
type CreateTaskRequest struct {
	ProjectID   string
	Description string
	Urgency     int
	Importance  int
}

// CreateTask creates a new task on a project's board.
func (s *Service) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, ErrInvalidInput
	}
	if !validScore(req.Urgency) || !validScore(req.Importance) {
		return nil, ErrInvalidInput
	}

	task := &Task{
		ID:          uuid.NewString(),
		ProjectID:   req.ProjectID,
		Description: req.Description,
		Urgency:     req.Urgency,
		Importance:  req.Importance,
		CreatedAt:   time.Now(),
		Assignees:   []string{},
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

// UpdateTaskRequest carries partial task updates; nil fields are untouched.
// Clearing a prediction pair is done by the bulk organize, not here.
type UpdateTaskRequest struct {
	Description         *string
	Urgency             *int
	Importance          *int
	PredictedUrgency    *int
	PredictedImportance *int
	Archived            *bool
}

// UpdateTask applies a partial update to a task.
func (s *Service) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (*Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}

	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, ErrInvalidInput
		}
		task.Description = *req.Description
	}
	if req.Urgency != nil {
		if !validScore(*req.Urgency) {
			return nil, ErrInvalidInput
		}
		task.Urgency = *req.Urgency
	}
	if req.Importance != nil {
		if !validScore(*req.Importance) {
			return nil, ErrInvalidInput
		}
		task.Importance = *req.Importance
	}
	if req.PredictedUrgency != nil {
		if !validScore(*req.PredictedUrgency) {
			return nil, ErrInvalidInput
		}
		task.PredictedUrgency = req.PredictedUrgency
	}
	if req.PredictedImportance != nil {
		if !validScore(*req.PredictedImportance) {
			return nil, ErrInvalidInput
		}
		task.PredictedImportance = req.PredictedImportance
	}
	if req.Archived != nil {
		task.Archived = *req.Archived
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task; its assignment and line rows cascade away in
// storage.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("deleting task: %w", err)
	}
	return nil
}

// AssignPlayer links a player to a task. Assigning an already assigned
// player is not an error.
func (s *Service) AssignPlayer(ctx context.Context, taskID, playerID string) error {
	if err := s.tasks.Assign(ctx, taskID, playerID); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("assigning player: %w", err)
	}
	return nil
}

// UnassignPlayer removes a task/player link; absent links are ignored.
func (s *Service) UnassignPlayer(ctx context.Context, taskID, playerID string) error {
	if err := s.tasks.Unassign(ctx, taskID, playerID); err != nil {
		return fmt.Errorf("unassigning player: %w", err)
	}
	return nil
}

// CreatePlayerRequest defines player creation inputs.
type CreatePlayerRequest struct {
	ProjectID string
	UserID    string
	Name      string
	Color     string
}

// CreatePlayer adds a user's assignable presence to a project.
func (s *Service) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*Player, error) {
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}

	player := &Player{
		ID:        uuid.NewString(),
		ProjectID: req.ProjectID,
		UserID:    req.UserID,
		Name:      req.Name,
		Color:     req.Color,
		CreatedAt: time.Now(),
	}
	if player.Color == "" {
		player.Color = "#808080"
	}
	if err := s.players.Create(ctx, player); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("creating player: %w", err)
	}
	return player, nil
}

// UpdatePlayerRequest carries partial player updates; nil fields are
// untouched.
type UpdatePlayerRequest struct {
	Name  *string
	Color *string
}

// UpdatePlayer applies a partial update to a player.
func (s *Service) UpdatePlayer(ctx context.Context, id string, req UpdatePlayerRequest) (*Player, error) {
	player, err := s.players.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrInvalidInput
		}
		player.Name = *req.Name
	}
	if req.Color != nil {
		player.Color = *req.Color
	}

	if err := s.players.Update(ctx, player); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("updating player: %w", err)
	}
	return player, nil
}

// DeletePlayer removes a player; its assignment rows cascade away.
func (s *Service) DeletePlayer(ctx context.Context, id string) error {
	if err := s.players.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("deleting player: %w", err)
	}
	return nil
}

// CreateLineRequest defines line creation inputs.
type CreateLineRequest struct {
	ProjectID  string
	FromTaskID string
	ToTaskID   string
	Style      string
	Color      string
}

// CreateLine connects two tasks visually.
func (s *Service) CreateLine(ctx context.Context, req CreateLineRequest) (*Line, error) {
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.FromTaskID) == "" || strings.TrimSpace(req.ToTaskID) == "" {
		return nil, ErrInvalidInput
	}

	line := &Line{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		FromTaskID: req.FromTaskID,
		ToTaskID:   req.ToTaskID,
		Style:      req.Style,
		Color:      req.Color,
		CreatedAt:  time.Now(),
	}
	if line.Style == "" {
		line.Style = "solid"
	}
	if err := s.lines.Create(ctx, line); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("creating line: %w", err)
	}
	return line, nil
}

// DeleteLine removes a line.
func (s *Service) DeleteLine(ctx context.Context, id string) error {
	if err := s.lines.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLineNotFound
		}
		return fmt.Errorf("deleting line: %w", err)
	}
	return nil
}

func validScore(v int) bool {
	return v >= 0 && v <= 100
}
