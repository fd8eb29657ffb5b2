package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/attendance"
)

const selectColumns = "SELECT id, client_id, check_in_time, check_out_time FROM attendance"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new attendance Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List retrieves check-ins ordered by check-in time.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Attendance, error) {
	var where []string
	var args []any
	if !filter.Since.IsZero() {
		where = append(where, "check_in_time >= ?")
		args = append(args, storage.FormatTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		where = append(where, "check_in_time < ?")
		args = append(args, storage.FormatTime(filter.Until))
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY check_in_time, seq LIMIT ? OFFSET ?"
	args = append(args, storage.Limit(filter.Limit), filter.Offset)

	return s.query(ctx, query, args...)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Attendance
	for rows.Next() {
		var entity domain.Attendance
		var checkInStr string
		var checkOutStr sql.NullString
		if err := rows.Scan(&entity.ID, &entity.ClientID, &checkInStr, &checkOutStr); err != nil {
			return nil, err
		}
		// Parse check-in time (required)
		entity.CheckInTime, err = storage.ParseStoredTime(checkInStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse check_in_time: %w", err)
		}
		// Parse check-out time (optional)
		if checkOutStr.Valid {
			parsedTime, parseErr := storage.ParseStoredTime(checkOutStr.String)
			if parseErr != nil {
				return nil, fmt.Errorf("failed to parse check_out_time: %w", parseErr)
			}
			entity.CheckOutTime = parsedTime
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// ReplaceAll swaps the mirrored check-ins for values.
// PRE: tx is an open transaction (or the database for a non-atomic replace)
// POST: The table holds exactly values
func (s *SQLiteStore) ReplaceAll(ctx context.Context, tx storage.Execer, values []domain.Attendance) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance"); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}
	for _, a := range values {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO attendance (id, client_id, check_in_time, check_out_time) VALUES (?, ?, ?, ?)",
			a.ID, a.ClientID, storage.FormatTime(a.CheckInTime), storage.NullTime(a.CheckOutTime),
		); err != nil {
			return fmt.Errorf("insert attendance %s: %w", a.ID, err)
		}
	}
	return nil
}
