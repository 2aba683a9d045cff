package lock

import "time"

// DefaultTTL is how long an organize lock stays valid without a release.
const DefaultTTL = 60 * time.Second

// Lock is the per-project row guarding the bulk organize operation.
// At most one valid (non-expired) lock exists per project; expiry is
// evaluated at read and acquire time, never by a background sweeper.
type Lock struct {
	ProjectID  string    `json:"project_id"`
	HolderID   string    `json:"holder_id"`
	HolderName string    `json:"holder_name"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the lock is past its TTL at the given instant.
func (l *Lock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// AcquireResult reports the outcome of an acquire attempt. Holder carries
// the current holder's display name when the lock was denied.
type AcquireResult struct {
	Granted bool   `json:"granted"`
	Holder  string `json:"holder,omitempty"`
}

// Status describes the lock for display purposes only; callers must not
// base correctness decisions on it.
type Status struct {
	Locked    bool       `json:"locked"`
	Holder    string     `json:"holder,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
