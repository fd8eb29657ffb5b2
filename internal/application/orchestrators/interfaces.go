package orchestrators

import (
	"context"
	"time"

	"gymcrm/internal/adapters/api"
	"gymcrm/internal/adapters/storage/mirror"
	"gymcrm/internal/application/snapshot"
	"gymcrm/internal/domain/attendance"
	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/payment"
	"gymcrm/internal/domain/reminder"
	"gymcrm/internal/domain/sale"
	"gymcrm/internal/domain/syncrun"
)

// CRMFetcher reads the collections from the remote CRM API.
type CRMFetcher interface {
	FetchClients(ctx context.Context) (api.Batch[client.Client], error)
	FetchPayments(ctx context.Context) (api.Batch[payment.Payment], error)
	FetchAttendance(ctx context.Context) (api.Batch[attendance.Attendance], error)
	FetchSales(ctx context.Context) (api.Batch[sale.Sale], error)
}

// MirrorStore persists the collections locally.
type MirrorStore interface {
	Replace(ctx context.Context, d mirror.Data, run syncrun.Run) error
	RecordFailure(ctx context.Context, run syncrun.Run) error
	Load(ctx context.Context) (mirror.Data, error)
}

// SnapshotPublisher rebuilds the in-memory snapshot.
type SnapshotPublisher interface {
	Refresh(ctx context.Context) (*snapshot.Snapshot, error)
	Current() *snapshot.Snapshot
}

// ReminderStore records reminders already sent.
type ReminderStore interface {
	Exists(ctx context.Context, clientID string, dueDate time.Time, status string) (bool, error)
	Save(ctx context.Context, r reminder.Reminder) error
}

// SyncMetrics receives sync observations.
type SyncMetrics interface {
	ObserveSync(err error, d time.Duration)
	AddRejected(collection string, n int)
	SetSnapshot(counts map[string]int, skippedInvalid int, fetchedAt time.Time)
}

// ReminderMetrics receives reminder outcomes.
type ReminderMetrics interface {
	CountReminder(status, outcome string)
}
