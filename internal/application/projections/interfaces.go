package projections

import (
	"errors"

	"gymcrm/internal/application/snapshot"
)

// ErrClientNotFound is returned when a query names a client missing from the snapshot.
var ErrClientNotFound = errors.New("client not found")

// ErrInvalidQuery is returned when query parameters are malformed.
var ErrInvalidQuery = errors.New("invalid query")

// SnapshotReader provides the currently published snapshot.
type SnapshotReader interface {
	Current() *snapshot.Snapshot
}
