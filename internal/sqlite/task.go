package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/repository"
)

// TaskRepository implements repository.TaskRepository for SQLite
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *board.Task) error {
	query := `
		INSERT INTO tasks (id, project_id, description, urgency, importance,
			predicted_urgency, predicted_importance, archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.ProjectID,
		task.Description,
		task.Urgency,
		task.Importance,
		task.PredictedUrgency,
		task.PredictedImportance,
		task.Archived,
		task.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// Get retrieves a task by ID, without its assignee list
func (r *TaskRepository) Get(ctx context.Context, id string) (*board.Task, error) {
	query := `
		SELECT id, project_id, description, urgency, importance,
			predicted_urgency, predicted_importance, archived, created_at
		FROM tasks
		WHERE id = ?
	`

	var task board.Task
	var predictedUrgency, predictedImportance sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.ProjectID,
		&task.Description,
		&task.Urgency,
		&task.Importance,
		&predictedUrgency,
		&predictedImportance,
		&task.Archived,
		&task.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if predictedUrgency.Valid {
		v := int(predictedUrgency.Int64)
		task.PredictedUrgency = &v
	}
	if predictedImportance.Valid {
		v := int(predictedImportance.Int64)
		task.PredictedImportance = &v
	}
	task.Assignees = []string{}

	return &task, nil
}

// Update updates a task
func (r *TaskRepository) Update(ctx context.Context, task *board.Task) error {
	query := `
		UPDATE tasks
		SET description = ?, urgency = ?, importance = ?,
			predicted_urgency = ?, predicted_importance = ?, archived = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		task.Description,
		task.Urgency,
		task.Importance,
		task.PredictedUrgency,
		task.PredictedImportance,
		task.Archived,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a task; assignment and line rows cascade away
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListWithAssignees returns a project's tasks newest-first, each with its
// assignee list. One query evaluates the task/assignment join so an
// assignee list is never observed half-updated; tasks with no assignments
// carry an empty list, never nil.
func (r *TaskRepository) ListWithAssignees(ctx context.Context, projectID string) ([]board.Task, error) {
	query := `
		SELECT t.id, t.project_id, t.description, t.urgency, t.importance,
			t.predicted_urgency, t.predicted_importance, t.archived, t.created_at,
			a.player_id
		FROM tasks t
		LEFT JOIN assignments a ON a.task_id = t.id
		WHERE t.project_id = ?
		ORDER BY t.created_at DESC, t.id ASC, a.created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []board.Task
	for rows.Next() {
		var task board.Task
		var predictedUrgency, predictedImportance sql.NullInt64
		var playerID sql.NullString
		err := rows.Scan(
			&task.ID,
			&task.ProjectID,
			&task.Description,
			&task.Urgency,
			&task.Importance,
			&predictedUrgency,
			&predictedImportance,
			&task.Archived,
			&task.CreatedAt,
			&playerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		if len(tasks) > 0 && tasks[len(tasks)-1].ID == task.ID {
			if playerID.Valid {
				last := &tasks[len(tasks)-1]
				last.Assignees = append(last.Assignees, playerID.String)
			}
			continue
		}

		if predictedUrgency.Valid {
			v := int(predictedUrgency.Int64)
			task.PredictedUrgency = &v
		}
		if predictedImportance.Valid {
			v := int(predictedImportance.Int64)
			task.PredictedImportance = &v
		}
		task.Assignees = []string{}
		if playerID.Valid {
			task.Assignees = append(task.Assignees, playerID.String)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// ApplyPredictions promotes each unarchived task's predicted urgency and
// importance into the effective values in one statement, clearing the
// predictions, and returns the number of tasks updated.
func (r *TaskRepository) ApplyPredictions(ctx context.Context, projectID string) (int64, error) {
	query := `
		UPDATE tasks
		SET urgency = predicted_urgency,
			importance = predicted_importance,
			predicted_urgency = NULL,
			predicted_importance = NULL
		WHERE project_id = ? AND archived = 0
			AND predicted_urgency IS NOT NULL
			AND predicted_importance IS NOT NULL
	`

	result, err := r.db.ExecContext(ctx, query, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to apply predictions: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return updated, nil
}

// Assign links a player to a task; relinking an existing pair is a no-op
func (r *TaskRepository) Assign(ctx context.Context, taskID, playerID string) error {
	query := `
		INSERT INTO assignments (task_id, player_id)
		VALUES (?, ?)
		ON CONFLICT(task_id, player_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, taskID, playerID); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to assign player: %w", err)
	}
	return nil
}

// Unassign removes a task/player link; absent links are ignored
func (r *TaskRepository) Unassign(ctx context.Context, taskID, playerID string) error {
	query := `DELETE FROM assignments WHERE task_id = ? AND player_id = ?`

	if _, err := r.db.ExecContext(ctx, query, taskID, playerID); err != nil {
		return fmt.Errorf("failed to unassign player: %w", err)
	}
	return nil
}
