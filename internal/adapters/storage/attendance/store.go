package attendance

import (
	"context"
	"time"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/attendance"
)

// Store persists the mirrored check-ins.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Attendance, error)
	ReplaceAll(ctx context.Context, tx storage.Execer, values []domain.Attendance) error
}

// ListFilter carries filtering parameters for List operations.
// A zero Since or Until leaves that side of the range open.
type ListFilter struct {
	Limit  int
	Offset int
	Since  time.Time
	Until  time.Time
}
