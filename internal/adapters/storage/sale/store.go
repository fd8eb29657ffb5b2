package sale

import (
	"context"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/sale"
)

// Store persists the mirrored sales.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Sale, error)
	ReplaceAll(ctx context.Context, tx storage.Execer, values []domain.Sale) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
}
