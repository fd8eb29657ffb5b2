package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gymcrm/internal/adapters/api"
	"gymcrm/internal/adapters/storage/mirror"
	"gymcrm/internal/application/snapshot"
	"gymcrm/internal/domain/syncrun"
)

// SyncSnapshotDeps holds dependencies for ExecuteSyncSnapshot.
type SyncSnapshotDeps struct {
	Fetcher    CRMFetcher
	Mirror     MirrorStore
	Snapshots  SnapshotPublisher
	Metrics    SyncMetrics // optional
	GenerateID func() string
	Now        func() time.Time
}

// SyncResult summarizes one sync.
type SyncResult struct {
	Run       syncrun.Run
	Rejected  []api.Rejection
	Published bool
}

// ExecuteSyncSnapshot pulls every collection from the CRM, replaces the local
// mirror and publishes a new snapshot.
// PRE: Deps are non-nil except Metrics
// POST: On success the mirror and snapshot hold the fetched data; on failure
// both keep their previous content and the failed run is recorded
func ExecuteSyncSnapshot(ctx context.Context, deps SyncSnapshotDeps) (SyncResult, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.GenerateID
	if newID == nil {
		newID = uuid.NewString
	}

	run := syncrun.Run{ID: newID(), StartedAt: now().UTC()}
	slog.Info("sync_started", "run_id", run.ID)

	data, rejected, err := fetchAll(ctx, deps.Fetcher)
	if err == nil {
		run.Clients = len(data.Clients)
		run.Payments = len(data.Payments)
		run.Attendance = len(data.Attendance)
		run.Sales = len(data.Sales)
		run.Rejected = len(rejected)
		run.FinishedAt = now().UTC()
		data.FetchedAt = run.FinishedAt
		err = deps.Mirror.Replace(ctx, data, run)
	}
	if err != nil {
		run.FinishedAt = now().UTC()
		run.Error = err.Error()
		if recErr := deps.Mirror.RecordFailure(ctx, run); recErr != nil {
			slog.Error("sync_run_record_failed", "run_id", run.ID, "error", recErr)
		}
		deps.observe(err, run)
		slog.Error("sync_failed", "run_id", run.ID, "error", err, "duration_ms", run.Duration().Milliseconds())
		return SyncResult{Run: run, Rejected: rejected}, fmt.Errorf("sync: %w", err)
	}

	for collection, n := range countByCollection(rejected) {
		if deps.Metrics != nil {
			deps.Metrics.AddRejected(collection, n)
		}
	}

	result := SyncResult{Run: run, Rejected: rejected}
	snap, err := deps.Snapshots.Refresh(ctx)
	if err != nil {
		// The mirror holds the new data; the next refresh will publish it.
		slog.Error("sync_publish_failed", "run_id", run.ID, "error", err)
	} else {
		result.Published = true
		if deps.Metrics != nil {
			deps.Metrics.SetSnapshot(snap.Counts(), snap.InvalidPaymentDates(), snap.FetchedAt())
		}
	}
	deps.observe(nil, run)

	slog.Info("sync_completed",
		"run_id", run.ID,
		"clients", run.Clients,
		"payments", run.Payments,
		"attendance", run.Attendance,
		"sales", run.Sales,
		"rejected", run.Rejected,
		"duration_ms", run.Duration().Milliseconds(),
	)
	return result, nil
}

func (d SyncSnapshotDeps) observe(err error, run syncrun.Run) {
	if d.Metrics != nil {
		d.Metrics.ObserveSync(err, run.Duration())
	}
}

// fetchAll reads the four collections; any transport failure aborts the sync.
func fetchAll(ctx context.Context, f CRMFetcher) (mirror.Data, []api.Rejection, error) {
	var data mirror.Data
	var rejected []api.Rejection

	clients, err := f.FetchClients(ctx)
	if err != nil {
		return mirror.Data{}, nil, fmt.Errorf("fetch clients: %w", err)
	}
	data.Clients, rejected = clients.Records, append(rejected, clients.Rejected...)

	payments, err := f.FetchPayments(ctx)
	if err != nil {
		return mirror.Data{}, nil, fmt.Errorf("fetch payments: %w", err)
	}
	data.Payments, rejected = payments.Records, append(rejected, payments.Rejected...)

	visits, err := f.FetchAttendance(ctx)
	if err != nil {
		return mirror.Data{}, nil, fmt.Errorf("fetch attendance: %w", err)
	}
	data.Attendance, rejected = visits.Records, append(rejected, visits.Rejected...)

	sales, err := f.FetchSales(ctx)
	if err != nil {
		return mirror.Data{}, nil, fmt.Errorf("fetch sales: %w", err)
	}
	data.Sales, rejected = sales.Records, append(rejected, sales.Rejected...)

	return data, rejected, nil
}

func countByCollection(rejected []api.Rejection) map[string]int {
	counts := make(map[string]int)
	for _, r := range rejected {
		counts[r.Collection]++
	}
	return counts
}

// MirrorSource adapts the mirror to a snapshot source.
func MirrorSource(m MirrorStore) snapshot.Source {
	return snapshot.SourceFunc(func(ctx context.Context) (snapshot.Data, error) {
		d, err := m.Load(ctx)
		if err != nil {
			return snapshot.Data{}, err
		}
		return snapshot.Data{
			Clients:    d.Clients,
			Payments:   d.Payments,
			Attendance: d.Attendance,
			Sales:      d.Sales,
			FetchedAt:  d.FetchedAt,
		}, nil
	})
}
