package board

import "errors"

var (
	// ErrProjectNotFound indicates the project row is absent, distinct
	// from a board with zero tasks.
	ErrProjectNotFound = errors.New("project not found")
	// ErrTaskNotFound indicates the task doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrPlayerNotFound indicates the player doesn't exist.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrLineNotFound indicates the line doesn't exist.
	ErrLineNotFound = errors.New("line not found")
	// ErrInvalidInput indicates input validation failed.
	ErrInvalidInput = errors.New("invalid board input")
)
