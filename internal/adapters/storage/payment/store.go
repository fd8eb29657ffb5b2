package payment

import (
	"context"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/payment"
)

// Store persists the mirrored payment history.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Payment, error)
	ReplaceAll(ctx context.Context, tx storage.Execer, values []domain.Payment) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit    int
	Offset   int
	ClientID string
}
