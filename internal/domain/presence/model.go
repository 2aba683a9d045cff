package presence

import "time"

// DefaultWindow is the recency window within which a collaborator counts as
// active: 1.5x the 60s client heartbeat interval, so one missed beat does
// not flip a user's status.
const DefaultWindow = 90 * time.Second

// Record tracks the last heartbeat for one user viewing one project.
// Rows are upserted on every heartbeat and never deleted as part of the
// request path; staleness is a read-time predicate.
type Record struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	LastSeen  time.Time `json:"last_seen"`
}
