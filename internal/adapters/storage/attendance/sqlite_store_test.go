package attendance

import (
	"context"
	"testing"
	"time"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/attendance"
)

func newTestStore(t *testing.T) *SQLiteStore {
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
	return NewSQLiteStore(db)
}

// TestSQLiteStore_ListRange verifies the half-open check-in range and time ordering.
func TestSQLiteStore_ListRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	art := time.FixedZone("ART", -3*3600)
	checkIns := []domain.Attendance{
		{ID: "b", ClientID: "1", CheckInTime: time.Date(2024, 6, 2, 18, 0, 0, 0, art)},
		{ID: "a", ClientID: "2", CheckInTime: time.Date(2024, 6, 1, 9, 30, 0, 0, art),
			CheckOutTime: time.Date(2024, 6, 1, 11, 0, 0, 0, art)},
		{ID: "c", ClientID: "1", CheckInTime: time.Date(2024, 6, 3, 7, 0, 0, 0, art)},
	}
	if err := s.ReplaceAll(ctx, s.db, checkIns); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"all ordered by check-in", ListFilter{}, []string{"a", "b", "c"}},
		{"since", ListFilter{Since: time.Date(2024, 6, 2, 0, 0, 0, 0, art)}, []string{"b", "c"}},
		{"until is exclusive", ListFilter{Until: checkIns[0].CheckInTime}, []string{"a"}},
		{"both bounds", ListFilter{Since: time.Date(2024, 6, 2, 0, 0, 0, 0, art), Until: time.Date(2024, 6, 3, 0, 0, 0, 0, art)}, []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d check-ins, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}

	all, _ := s.List(ctx, ListFilter{})
	if !all[0].CheckInTime.Equal(checkIns[1].CheckInTime) || !all[0].CheckOutTime.Equal(checkIns[1].CheckOutTime) {
		t.Errorf("times not round-tripped: %+v", all[0])
	}
	if !all[1].CheckOutTime.IsZero() {
		t.Errorf("open check-in got a check-out: %v", all[1].CheckOutTime)
	}
}
