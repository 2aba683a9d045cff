package board

import "context"

// ProjectRepository persists project metadata.
type ProjectRepository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
}

// TaskRepository persists tasks and their assignment rows.
// ListWithAssignees must evaluate the task/assignment join as one query so
// a task's assignee list is never observed half-updated.
// ApplyPredictions is the bulk organize write: one statement promoting each
// unarchived task's predicted urgency/importance into the effective values.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
	ListWithAssignees(ctx context.Context, projectID string) ([]Task, error)
	ApplyPredictions(ctx context.Context, projectID string) (int64, error)
	Assign(ctx context.Context, taskID, playerID string) error
	Unassign(ctx context.Context, taskID, playerID string) error
}

// PlayerRepository persists players.
type PlayerRepository interface {
	Create(ctx context.Context, player *Player) error
	Get(ctx context.Context, id string) (*Player, error)
	Update(ctx context.Context, player *Player) error
	Delete(ctx context.Context, id string) error
	ListByProject(ctx context.Context, projectID string) ([]Player, error)
}

// LineRepository persists lines.
type LineRepository interface {
	Create(ctx context.Context, line *Line) error
	Delete(ctx context.Context, id string) error
	ListByProject(ctx context.Context, projectID string) ([]Line, error)
}
