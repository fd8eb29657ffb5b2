package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Source loads the data a snapshot is built from.
type Source interface {
	Load(ctx context.Context) (Data, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Data, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (Data, error) { return f(ctx) }

// Repository publishes the current snapshot. Readers never block; refreshes
// are serialized.
type Repository struct {
	source  Source
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewRepository creates a repository holding an empty snapshot.
// PRE: source is non-nil
// POST: Current returns an empty snapshot until the first Refresh or Publish
func NewRepository(source Source) *Repository {
	r := &Repository{source: source}
	r.current.Store(Empty())
	return r
}

// Current returns the published snapshot. Never nil.
func (r *Repository) Current() *Snapshot {
	return r.current.Load()
}

// Refresh loads from the source and publishes the result.
// PRE: ctx is not cancelled
// POST: On success the new snapshot is published; on error the previous one stays
func (r *Repository) Refresh(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, err := r.source.Load(ctx)
	if err != nil {
		return r.current.Load(), fmt.Errorf("refresh snapshot: %w", err)
	}
	s := New(d)
	r.current.Store(s)
	slog.Info("snapshot_published",
		"clients", len(s.clients),
		"payments", len(s.payments),
		"attendance", len(s.attendance),
		"sales", len(s.sales),
		"fetched_at", s.fetchedAt,
	)
	return s, nil
}

// Publish builds a snapshot from d and publishes it without consulting the source.
func (r *Repository) Publish(d Data) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := New(d)
	r.current.Store(s)
	return s
}
