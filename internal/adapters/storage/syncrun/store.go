package syncrun

import (
	"context"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/syncrun"
)

// Store persists the history of sync runs.
type Store interface {
	Save(ctx context.Context, tx storage.Execer, value domain.Run) error
	LatestSuccessful(ctx context.Context) (domain.Run, bool, error)
	List(ctx context.Context, limit int) ([]domain.Run, error)
}
