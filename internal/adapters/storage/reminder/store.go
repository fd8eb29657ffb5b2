package reminder

import (
	"context"
	"time"

	domain "gymcrm/internal/domain/reminder"
)

// Store persists the log of sent payment reminders.
type Store interface {
	Save(ctx context.Context, value domain.Reminder) error
	Exists(ctx context.Context, clientID string, dueDate time.Time, status string) (bool, error)
	ListByClientID(ctx context.Context, clientID string) ([]domain.Reminder, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Reminder, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
}
