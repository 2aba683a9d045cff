package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidyboard/tidyboard/internal/domain/board"
	"github.com/tidyboard/tidyboard/internal/domain/lock"
	"github.com/tidyboard/tidyboard/internal/domain/presence"
)

// LockService coordinates the per-project organize lock.
type LockService interface {
	Acquire(ctx context.Context, projectID, holderID, holderName string) (lock.AcquireResult, error)
	Release(ctx context.Context, projectID string) error
	Status(ctx context.Context, projectID string) (lock.Status, error)
}

// PresenceService records heartbeats and lists active collaborators.
type PresenceService interface {
	Heartbeat(ctx context.Context, projectID, userID string) error
	ListActive(ctx context.Context, projectID string, window time.Duration) ([]string, error)
}

// BoardService handles board entities, snapshots, and bulk organize.
type BoardService interface {
	Snapshot(ctx context.Context, projectID string) (*board.Snapshot, error)
	Organize(ctx context.Context, projectID string) (int64, error)
	CreateProject(ctx context.Context, req board.CreateProjectRequest) (*board.Project, error)
	GetProject(ctx context.Context, id string) (*board.Project, error)
	CreateTask(ctx context.Context, req board.CreateTaskRequest) (*board.Task, error)
	UpdateTask(ctx context.Context, id string, req board.UpdateTaskRequest) (*board.Task, error)
	DeleteTask(ctx context.Context, id string) error
	AssignPlayer(ctx context.Context, taskID, playerID string) error
	UnassignPlayer(ctx context.Context, taskID, playerID string) error
	CreatePlayer(ctx context.Context, req board.CreatePlayerRequest) (*board.Player, error)
	UpdatePlayer(ctx context.Context, id string, req board.UpdatePlayerRequest) (*board.Player, error)
	DeletePlayer(ctx context.Context, id string) error
	CreateLine(ctx context.Context, req board.CreateLineRequest) (*board.Line, error)
	DeleteLine(ctx context.Context, id string) error
}

// Server wires HTTP handlers.
type Server struct {
	locks    LockService
	presence PresenceService
	board    BoardService
}

// NewServer creates an HTTP router with middleware.
func NewServer(locks LockService, presenceSvc PresenceService, boardSvc BoardService, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	srv := &Server{locks: locks, presence: presenceSvc, board: boardSvc}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Post("/projects", srv.handleCreateProject)
		r.Get("/projects/{id}", srv.handleGetProject)
		r.Get("/projects/{id}/sync", srv.handleSync)
		r.Post("/projects/{id}/organize", srv.handleOrganize)

		r.Post("/projects/{id}/organize-lock", srv.handleAcquireLock)
		r.Delete("/projects/{id}/organize-lock", srv.handleReleaseLock)
		r.Get("/projects/{id}/organize-lock", srv.handleLockStatus)

		r.Post("/projects/{id}/activity", srv.handleHeartbeat)
		r.Get("/projects/{id}/activity", srv.handleActiveUsers)

		r.Post("/projects/{id}/tasks", srv.handleCreateTask)
		r.Patch("/tasks/{id}", srv.handleUpdateTask)
		r.Delete("/tasks/{id}", srv.handleDeleteTask)
		r.Put("/tasks/{id}/assignees/{playerId}", srv.handleAssign)
		r.Delete("/tasks/{id}/assignees/{playerId}", srv.handleUnassign)

		r.Post("/projects/{id}/players", srv.handleCreatePlayer)
		r.Patch("/players/{id}", srv.handleUpdatePlayer)
		r.Delete("/players/{id}", srv.handleDeletePlayer)

		r.Post("/projects/{id}/lines", srv.handleCreateLine)
		r.Delete("/lines/{id}", srv.handleDeleteLine)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type acquireLockRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type acquireLockResponse struct {
	Success  bool   `json:"success"`
	Locked   bool   `json:"locked"`
	LockedBy string `json:"lockedBy,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (s *Server) handleAcquireLock(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	// Body may name the holder explicitly; the authenticated caller is the
	// default.
	req := acquireLockRequest{UserID: identity.ID, UserName: identity.DisplayName}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" {
			req.UserID = identity.ID
		}
		if req.UserName == "" {
			req.UserName = identity.DisplayName
		}
	}

	res, err := s.locks.Acquire(r.Context(), chi.URLParam(r, "id"), req.UserID, req.UserName)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if res.Granted {
		writeJSON(w, http.StatusOK, acquireLockResponse{
			Success: true,
			Locked:  false,
			Message: "lock acquired",
		})
		return
	}
	writeJSON(w, http.StatusOK, acquireLockResponse{
		Success:  false,
		Locked:   true,
		LockedBy: res.Holder,
		Message:  "board is being organized by another user",
	})
}

func (s *Server) handleReleaseLock(w http.ResponseWriter, r *http.Request) {
	if err := s.locks.Release(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "lock released"})
}

type lockStatusResponse struct {
	Locked    bool   `json:"locked"`
	LockedBy  string `json:"lockedBy,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

func (s *Server) handleLockStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.locks.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	resp := lockStatusResponse{Locked: status.Locked, LockedBy: status.Holder}
	if status.ExpiresAt != nil {
		resp.ExpiresAt = status.ExpiresAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	if err := s.presence.Heartbeat(r.Context(), chi.URLParam(r, "id"), identity.ID); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleActiveUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.presence.ListActive(r.Context(), chi.URLParam(r, "id"), 0)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "active": users})
}

type syncData struct {
	Tasks     []board.Task   `json:"tasks"`
	Players   []board.Player `json:"players"`
	Lines     []board.Line   `json:"lines"`
	Project   *board.Project `json:"project"`
	Timestamp time.Time      `json:"timestamp"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	snap, err := s.board.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": syncData{
			Tasks:     snap.Tasks,
			Players:   snap.Players,
			Lines:     snap.Lines,
			Project:   snap.Project,
			Timestamp: snap.AsOf,
		},
	})
}

func (s *Server) handleOrganize(w http.ResponseWriter, r *http.Request) {
	updated, err := s.board.Organize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": updated})
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proj, err := s.board.CreateProject(r.Context(), board.CreateProjectRequest{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     identity.ID,
		Type:        board.ProjectType(req.Type),
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.board.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

type createTaskRequest struct {
	Description string `json:"description"`
	Urgency     int    `json:"urgency"`
	Importance  int    `json:"importance"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.board.CreateTask(r.Context(), board.CreateTaskRequest{
		ProjectID:   chi.URLParam(r, "id"),
		Description: req.Description,
		Urgency:     req.Urgency,
		Importance:  req.Importance,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

type updateTaskRequest struct {
	Description         *string `json:"description"`
	Urgency             *int    `json:"urgency"`
	Importance          *int    `json:"importance"`
	PredictedUrgency    *int    `json:"predicted_urgency"`
	PredictedImportance *int    `json:"predicted_importance"`
	Archived            *bool   `json:"archived"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.board.UpdateTask(r.Context(), chi.URLParam(r, "id"), board.UpdateTaskRequest{
		Description:         req.Description,
		Urgency:             req.Urgency,
		Importance:          req.Importance,
		PredictedUrgency:    req.PredictedUrgency,
		PredictedImportance: req.PredictedImportance,
		Archived:            req.Archived,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.board.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	if err := s.board.AssignPlayer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "playerId")); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	if err := s.board.UnassignPlayer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "playerId")); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type createPlayerRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		req.Name = identity.DisplayName
	}

	player, err := s.board.CreatePlayer(r.Context(), board.CreatePlayerRequest{
		ProjectID: chi.URLParam(r, "id"),
		UserID:    identity.ID,
		Name:      req.Name,
		Color:     req.Color,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

type updatePlayerRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req updatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	player, err := s.board.UpdatePlayer(r.Context(), chi.URLParam(r, "id"), board.UpdatePlayerRequest{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.board.DeletePlayer(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type createLineRequest struct {
	FromTaskID string `json:"from_task_id"`
	ToTaskID   string `json:"to_task_id"`
	Style      string `json:"style"`
	Color      string `json:"color"`
}

func (s *Server) handleCreateLine(w http.ResponseWriter, r *http.Request) {
	var req createLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := s.board.CreateLine(r.Context(), board.CreateLineRequest{
		ProjectID:  chi.URLParam(r, "id"),
		FromTaskID: req.FromTaskID,
		ToTaskID:   req.ToTaskID,
		Style:      req.Style,
		Color:      req.Color,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (s *Server) handleDeleteLine(w http.ResponseWriter, r *http.Request) {
	if err := s.board.DeleteLine(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// respondError maps domain errors onto the HTTP taxonomy: 404 for missing
// entities, 400 for rejected input, 500 for storage failures. Lock denial
// never reaches here; it is a normal negative outcome, not an error.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "project not found")
	case errors.Is(err, board.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, board.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "player not found")
	case errors.Is(err, board.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "line not found")
	case errors.Is(err, board.ErrInvalidInput),
		errors.Is(err, lock.ErrInvalidInput),
		errors.Is(err, presence.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
