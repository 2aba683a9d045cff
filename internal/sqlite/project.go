package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *board.Project) error {
	query := `
		INSERT INTO projects (id, name, description, owner_id, type, archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.Description,
		proj.OwnerID,
		proj.Type,
		proj.Archived,
		proj.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*board.Project, error) {
	query := `
		SELECT id, name, description, owner_id, type, archived, created_at
		FROM projects
		WHERE id = ?
	`

	var proj board.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proj.ID,
		&proj.Name,
		&proj.Description,
		&proj.OwnerID,
		&proj.Type,
		&proj.Archived,
		&proj.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &proj, nil
}
