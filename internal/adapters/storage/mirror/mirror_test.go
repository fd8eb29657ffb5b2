package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gymcrm/internal/adapters/storage"
	"gymcrm/internal/domain/attendance"
	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/payment"
	"gymcrm/internal/domain/sale"
	"gymcrm/internal/domain/syncrun"
)

func newTestMirror(t *testing.T) *Mirror {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(storage.Instrument(db))
}

func sampleData() Data {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	return Data{
		Clients: []client.Client{
			{ID: "1", Name: "Ana", Email: "ana@example.com", RegistrationDate: day(1), Active: true},
			{ID: "2", Name: "Luis", Active: false},
		},
		Payments: []payment.Payment{
			{ID: "10", ClientID: "1", Amount: decimal.RequireFromString("15000.25"), MembershipType: payment.TypeMonthly, PaymentDate: day(1), Paid: true, Method: "efectivo"},
			{ID: "11", ClientID: "2", Amount: decimal.NewFromInt(100), MembershipType: payment.TypeAnnual},
		},
		Attendance: []attendance.Attendance{
			{ID: "a2", ClientID: "1", CheckInTime: time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)},
			{ID: "a1", ClientID: "1", CheckInTime: time.Date(2024, 3, 2, 8, 0, 0, 500, time.UTC), CheckOutTime: time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)},
		},
		Sales: []sale.Sale{
			{ID: "s1", Total: decimal.NewFromInt(2500), Date: day(2)},
		},
	}
}

func successfulRun(at time.Time) syncrun.Run {
	return syncrun.Run{ID: at.Format(time.RFC3339), StartedAt: at.Add(-time.Second), FinishedAt: at}
}

// TestMirror_ReplaceAndLoad verifies a full replace round-trips every collection.
func TestMirror_ReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	m := newTestMirror(t)
	at := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

	if err := m.Replace(ctx, sampleData(), successfulRun(at)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(got.Clients) != 2 || got.Clients[0].Name != "Ana" || !got.Clients[0].Active || got.Clients[1].Active {
		t.Errorf("clients = %+v", got.Clients)
	}
	if got.Clients[1].IsRegistered() {
		t.Error("missing registration date must stay missing")
	}
	if len(got.Payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(got.Payments))
	}
	p := got.Payments[0]
	if !p.Amount.Equal(decimal.RequireFromString("15000.25")) || !p.Paid || p.MembershipType != payment.TypeMonthly || p.Method != "efectivo" {
		t.Errorf("payment = %+v", p)
	}
	if got.Payments[1].HasValidDate() {
		t.Error("zero payment date must stay zero")
	}
	if len(got.Attendance) != 2 || got.Attendance[0].ID != "a1" {
		t.Errorf("attendance should be ordered by check-in: %+v", got.Attendance)
	}
	if got.Attendance[0].CheckOutTime.IsZero() || !got.Attendance[1].CheckOutTime.IsZero() {
		t.Errorf("check-out times not preserved: %+v", got.Attendance)
	}
	if len(got.Sales) != 1 || !got.Sales[0].Total.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("sales = %+v", got.Sales)
	}
	if !got.FetchedAt.Equal(at) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, at)
	}
}

// TestMirror_ReplaceIsFull verifies a second replace removes rows missing from it.
func TestMirror_ReplaceIsFull(t *testing.T) {
	ctx := context.Background()
	m := newTestMirror(t)
	at := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

	if err := m.Replace(ctx, sampleData(), successfulRun(at)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	smaller := Data{Clients: []client.Client{{ID: "3", Name: "Eva"}}}
	if err := m.Replace(ctx, smaller, successfulRun(at.Add(time.Hour))); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	got, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Clients) != 1 || got.Clients[0].ID != "3" {
		t.Errorf("clients = %+v", got.Clients)
	}
	if len(got.Payments)+len(got.Attendance)+len(got.Sales) != 0 {
		t.Error("old rows survived a full replace")
	}
	if !got.FetchedAt.Equal(at.Add(time.Hour)) {
		t.Errorf("FetchedAt = %v", got.FetchedAt)
	}
}

// TestMirror_FailedRunKeepsData verifies that recording a failure leaves the mirror intact.
func TestMirror_FailedRunKeepsData(t *testing.T) {
	ctx := context.Background()
	m := newTestMirror(t)
	at := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

	if err := m.Replace(ctx, sampleData(), successfulRun(at)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	failed := successfulRun(at.Add(time.Hour))
	failed.Error = "GET /pagos: status 502"
	if err := m.RecordFailure(ctx, failed); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	got, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Clients) != 2 || !got.FetchedAt.Equal(at) {
		t.Errorf("mirror changed after a failed run: %d clients, fetched %v", len(got.Clients), got.FetchedAt)
	}

	runs, err := m.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].Succeeded() || !runs[1].Succeeded() {
		t.Errorf("runs = %+v", runs)
	}
}

// TestMirror_LoadEmpty verifies an unsynced mirror loads as empty.
func TestMirror_LoadEmpty(t *testing.T) {
	got, err := newTestMirror(t).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Clients) != 0 || !got.FetchedAt.IsZero() {
		t.Errorf("empty mirror = %+v", got)
	}
}
