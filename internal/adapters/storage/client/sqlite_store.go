package client

import (
	"context"
	"database/sql"
	"fmt"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/client"
)

const selectColumns = "SELECT id, name, email, phone, dni, registration_date, active FROM client"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new client Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (domain.Client, error) {
	var entity domain.Client
	var registration sql.NullString
	var active int
	if err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Email,
		&entity.Phone,
		&entity.DNI,
		&registration,
		&active,
	); err != nil {
		return domain.Client{}, err
	}
	entity.RegistrationDate = storage.ScanDate(registration)
	entity.Active = active == 1
	return entity, nil
}

// List retrieves clients in mirror order.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Client, error) {
	query := selectColumns
	if filter.ActiveOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY seq LIMIT ? OFFSET ?"

	rows, err := s.db.QueryContext(ctx, query, storage.Limit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Client
	for rows.Next() {
		entity, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// ReplaceAll swaps the mirrored roster for values.
// PRE: tx is an open transaction (or the database for a non-atomic replace)
// POST: The table holds exactly values, in order
func (s *SQLiteStore) ReplaceAll(ctx context.Context, tx storage.Execer, values []domain.Client) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM client"); err != nil {
		return fmt.Errorf("clear clients: %w", err)
	}
	for _, c := range values {
		active := 0
		if c.Active {
			active = 1
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO client (id, name, email, phone, dni, registration_date, active) VALUES (?, ?, ?, ?, ?, ?, ?)",
			c.ID, c.Name, c.Email, c.Phone, c.DNI, storage.NullDate(c.RegistrationDate), active,
		); err != nil {
			return fmt.Errorf("insert client %s: %w", c.ID, err)
		}
	}
	return nil
}
