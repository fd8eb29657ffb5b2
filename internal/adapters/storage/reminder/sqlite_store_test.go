package reminder

import (
	"context"
	"testing"
	"time"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/reminder"
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

// TestSQLiteStore_SaveAndExists verifies deduplication by client, due date and status.
func TestSQLiteStore_SaveAndExists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	sent := time.Date(2024, 3, 28, 9, 0, 0, 0, time.UTC)

	ok, err := s.Exists(ctx, "7", due, "due_soon")
	if err != nil || ok {
		t.Fatalf("Exists before save = %v, %v", ok, err)
	}

	r := domain.Reminder{ID: "r1", ClientID: "7", DueDate: due, Status: "due_soon", SentAt: sent, MessageID: "m1"}
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, _ := s.Exists(ctx, "7", due, "due_soon"); !ok {
		t.Error("Exists after save = false")
	}
	if ok, _ := s.Exists(ctx, "7", due, "overdue"); ok {
		t.Error("a different status must not match")
	}

	// same key again updates instead of failing
	r2 := r
	r2.ID = "r2"
	r2.MessageID = "m2"
	if err := s.Save(ctx, r2); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err := s.ListByClientID(ctx, "7")
	if err != nil {
		t.Fatalf("ListByClientID: %v", err)
	}
	if len(got) != 1 || got[0].MessageID != "m2" {
		t.Fatalf("reminders = %+v", got)
	}
	if !got[0].DueDate.Equal(due) || !got[0].SentAt.Equal(sent) {
		t.Errorf("round trip = %+v", got[0])
	}
}

// TestSQLiteStore_List verifies newest-first ordering and limits.
func TestSQLiteStore_List(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	base := time.Date(2024, 3, 28, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"1", "2", "3"} {
		r := domain.Reminder{ID: "r" + id, ClientID: id, DueDate: due, Status: "overdue", SentAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	got, err := s.List(ctx, ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ClientID != "3" {
		t.Errorf("List = %+v", got)
	}
}
