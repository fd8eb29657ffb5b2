package syncrun

import (
	"errors"
	"time"
)

// Run records one pull of the CRM collections into the mirror.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Clients    int
	Payments   int
	Attendance int
	Sales      int
	Rejected   int
	Error      string // empty when the run succeeded
}

// Validate checks if the Run has valid data.
// PRE: Run struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: FinishedAt is not before StartedAt
func (r *Run) Validate() error {
	if r.ID == "" {
		return errors.New("sync run id cannot be empty")
	}
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return errors.New("sync run times must be set")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return errors.New("sync run cannot finish before it starts")
	}
	return nil
}

// Succeeded reports whether the run replaced the mirror.
func (r *Run) Succeeded() bool {
	return r.Error == ""
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
