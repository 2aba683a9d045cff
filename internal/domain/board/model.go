package board

import "time"

// ProjectType distinguishes personal boards from shared team boards.
type ProjectType string

const (
	TypePersonal ProjectType = "personal"
	TypeTeam     ProjectType = "team"
)

// Project is the board's metadata row.
type Project struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     string      `json:"owner_id"`
	Type        ProjectType `json:"type"`
	Archived    bool        `json:"archived"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Task is a single card on the board. Urgency and importance run 0-100;
// the predicted pair, when present, is what a bulk organize promotes into
// the effective values. Assignees holds player IDs derived from the
// assignment rows at read time and is never nil on a read path.
type Task struct {
	ID                  string    `json:"id"`
	ProjectID           string    `json:"project_id"`
	Description         string    `json:"description"`
	Urgency             int       `json:"urgency"`
	Importance          int       `json:"importance"`
	PredictedUrgency    *int      `json:"predicted_urgency,omitempty"`
	PredictedImportance *int      `json:"predicted_importance,omitempty"`
	Archived            bool      `json:"archived"`
	CreatedAt           time.Time `json:"created_at"`
	Assignees           []string  `json:"assignees"`
}

// Player represents a user's assignable presence within one project.
type Player struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Line is a visual connector between two tasks.
type Line struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	FromTaskID string    `json:"from_task_id"`
	ToTaskID   string    `json:"to_task_id"`
	Style      string    `json:"style"`
	Color      string    `json:"color,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Snapshot is a point-in-time read of a whole board, assembled for
// stateless polling clients that replace their local view wholesale.
type Snapshot struct {
	Project *Project  `json:"project"`
	Tasks   []Task    `json:"tasks"`
	Players []Player  `json:"players"`
	Lines   []Line    `json:"lines"`
	AsOf    time.Time `json:"as_of"`
}
