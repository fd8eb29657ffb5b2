package reminder

import (
	"errors"
	"time"

	"gymcrm/internal/domain/dates"
)

// Reminder records a payment reminder e-mailed to a client.
type Reminder struct {
	ID        string
	ClientID  string
	DueDate   time.Time
	Status    string // membership status the reminder was sent for
	SentAt    time.Time
	MessageID string
}

// Validate checks if the Reminder has valid data.
// PRE: Reminder struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ClientID, DueDate and Status are set
func (r *Reminder) Validate() error {
	if r.ClientID == "" {
		return errors.New("reminder must be associated with a client")
	}
	if r.DueDate.IsZero() {
		return errors.New("reminder due date must be set")
	}
	if r.Status == "" {
		return errors.New("reminder status must be set")
	}
	return nil
}

// Key identifies a reminder for deduplication: one per client, due date and status.
func (r *Reminder) Key() string {
	return Key(r.ClientID, r.DueDate, r.Status)
}

// Key builds the deduplication key.
func Key(clientID string, dueDate time.Time, status string) string {
	return clientID + "|" + dates.Format(dueDate) + "|" + status
}
