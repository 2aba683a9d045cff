package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/repository"
)

// LineRepository implements repository.LineRepository for SQLite
type LineRepository struct {
	db *DB
}

// NewLineRepository creates a new LineRepository
func NewLineRepository(db *DB) *LineRepository {
	return &LineRepository{db: db}
}

// Create creates a new line
func (r *LineRepository) Create(ctx context.Context, line *board.Line) error {
	query := `
		INSERT INTO lines (id, project_id, from_task_id, to_task_id, style, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var color any
	if line.Color != "" {
		color = line.Color
	}
	_, err := r.db.ExecContext(ctx, query,
		line.ID,
		line.ProjectID,
		line.FromTaskID,
		line.ToTaskID,
		line.Style,
		color,
		line.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create line: %w", err)
	}

	return nil
}

// Delete removes a line
func (r *LineRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete line: %w", err)
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

// ListByProject returns a project's lines ordered by creation time
func (r *LineRepository) ListByProject(ctx context.Context, projectID string) ([]board.Line, error) {
	query := `
		SELECT id, project_id, from_task_id, to_task_id, style, color, created_at
		FROM lines
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}
	defer rows.Close()

	var lines []board.Line
	for rows.Next() {
		var line board.Line
		var color sql.NullString
		err := rows.Scan(
			&line.ID,
			&line.ProjectID,
			&line.FromTaskID,
			&line.ToTaskID,
			&line.Style,
			&color,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		line.Color = color.String
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows: %w", err)
	}

	return lines, nil
}
