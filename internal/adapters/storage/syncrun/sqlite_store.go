package syncrun

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/syncrun"
)

const selectColumns = "SELECT id, started_at, finished_at, clients, payments, attendance, sales, rejected, error FROM sync_run"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new sync run Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save records a run. Pass the mirror transaction so a successful run is
// recorded together with the data it wrote.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, tx storage.Execer, entity domain.Run) error {
	fields := []string{"id", "started_at", "finished_at", "clients", "payments", "attendance", "sales", "rejected", "error"}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	updates := make([]string, 0, len(fields)-1)
	for _, f := range fields[1:] {
		updates = append(updates, f+"=excluded."+f)
	}
	query := fmt.Sprintf(
		"INSERT INTO sync_run (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		placeholders,
		strings.Join(updates, ", "),
	)
	_, err := tx.ExecContext(ctx, query,
		entity.ID,
		storage.FormatTime(entity.StartedAt),
		storage.FormatTime(entity.FinishedAt),
		entity.Clients,
		entity.Payments,
		entity.Attendance,
		entity.Sales,
		entity.Rejected,
		entity.Error,
	)
	return err
}

// LatestSuccessful returns the most recent run without an error.
// POST: Returns false when no run has succeeded yet
func (s *SQLiteStore) LatestSuccessful(ctx context.Context) (domain.Run, bool, error) {
	runs, err := s.query(ctx, selectColumns+" WHERE error = '' ORDER BY finished_at DESC LIMIT 1")
	if err != nil || len(runs) == 0 {
		return domain.Run{}, false, err
	}
	return runs[0], true, nil
}

// List returns the most recent runs, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.Run, error) {
	return s.query(ctx, selectColumns+" ORDER BY finished_at DESC LIMIT ?", storage.Limit(limit))
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Run
	for rows.Next() {
		var r domain.Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Clients, &r.Payments, &r.Attendance, &r.Sales, &r.Rejected, &r.Error); err != nil {
			return nil, err
		}
		if r.StartedAt, err = storage.ParseStoredTime(started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if r.FinishedAt, err = storage.ParseStoredTime(finished); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return results, nil
}
