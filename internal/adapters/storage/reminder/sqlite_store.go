package reminder

import (
	"context"
	"fmt"
	"time"

	"gymcrm/internal/adapters/storage"
	"gymcrm/internal/domain/dates"
	domain "gymcrm/internal/domain/reminder"
)

const selectColumns = "SELECT id, client_id, due_date, status, sent_at, message_id FROM reminder"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new reminder Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists a Reminder. A second reminder for the same client, due date
// and status replaces the first.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Reminder) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminder (id, client_id, due_date, status, sent_at, message_id) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id, due_date, status) DO UPDATE SET sent_at=excluded.sent_at, message_id=excluded.message_id`,
		entity.ID,
		entity.ClientID,
		dates.Format(entity.DueDate),
		entity.Status,
		storage.FormatTime(entity.SentAt),
		entity.MessageID,
	)
	return err
}

// Exists reports whether a reminder was already sent for the client, due date and status.
// PRE: clientID is non-empty
// POST: Returns true when a matching row exists
func (s *SQLiteStore) Exists(ctx context.Context, clientID string, dueDate time.Time, status string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reminder WHERE client_id = ? AND due_date = ? AND status = ?",
		clientID, dates.Format(dueDate), status,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByClientID retrieves the reminders of a client, most recent first.
func (s *SQLiteStore) ListByClientID(ctx context.Context, clientID string) ([]domain.Reminder, error) {
	return s.query(ctx, selectColumns+" WHERE client_id = ? ORDER BY sent_at DESC", clientID)
}

// List retrieves reminders, most recent first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Reminder, error) {
	return s.query(ctx, selectColumns+" ORDER BY sent_at DESC LIMIT ? OFFSET ?", storage.Limit(filter.Limit), filter.Offset)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Reminder
	for rows.Next() {
		var entity domain.Reminder
		var dueDate, sentAt string
		if err := rows.Scan(&entity.ID, &entity.ClientID, &dueDate, &entity.Status, &sentAt, &entity.MessageID); err != nil {
			return nil, err
		}
		if entity.DueDate, err = dates.Parse(dueDate); err != nil {
			return nil, fmt.Errorf("failed to parse due_date: %w", err)
		}
		if entity.SentAt, err = storage.ParseStoredTime(sentAt); err != nil {
			return nil, fmt.Errorf("failed to parse sent_at: %w", err)
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
