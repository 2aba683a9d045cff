package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/repository"
)

// PlayerRepository implements repository.PlayerRepository for SQLite
type PlayerRepository struct {
	db *DB
}

// NewPlayerRepository creates a new PlayerRepository
func NewPlayerRepository(db *DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create creates a new player
func (r *PlayerRepository) Create(ctx context.Context, player *board.Player) error {
	query := `
		INSERT INTO players (id, project_id, user_id, name, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		player.ID,
		player.ProjectID,
		player.UserID,
		player.Name,
		player.Color,
		player.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create player: %w", err)
	}

	return nil
}

// Get retrieves a player by ID
func (r *PlayerRepository) Get(ctx context.Context, id string) (*board.Player, error) {
	query := `
		SELECT id, project_id, user_id, name, color, created_at
		FROM players
		WHERE id = ?
	`

	var player board.Player
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&player.ID,
		&player.ProjectID,
		&player.UserID,
		&player.Name,
		&player.Color,
		&player.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &player, nil
}

// Update updates a player's name and color
func (r *PlayerRepository) Update(ctx context.Context, player *board.Player) error {
	query := `UPDATE players SET name = ?, color = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, player.Name, player.Color, player.ID)
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
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

// Delete removes a player; assignment rows cascade away
func (r *PlayerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
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

// ListByProject returns a project's players ordered by creation time
func (r *PlayerRepository) ListByProject(ctx context.Context, projectID string) ([]board.Player, error) {
	query := `
		SELECT id, project_id, user_id, name, color, created_at
		FROM players
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []board.Player
	for rows.Next() {
		var player board.Player
		err := rows.Scan(
			&player.ID,
			&player.ProjectID,
			&player.UserID,
			&player.Name,
			&player.Color,
			&player.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player rows: %w", err)
	}

	return players, nil
}
