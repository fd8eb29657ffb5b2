package client

import (
	"context"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/client"
)

// Store persists the mirrored client roster.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Client, error)
	ReplaceAll(ctx context.Context, tx storage.Execer, values []domain.Client) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit      int
	Offset     int
	ActiveOnly bool
}
