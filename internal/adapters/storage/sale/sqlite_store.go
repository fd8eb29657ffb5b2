package sale

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/sale"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new sale Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List retrieves sales in mirror order.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, client_id, total, sale_date FROM sale ORDER BY seq LIMIT ? OFFSET ?",
		storage.Limit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Sale
	for rows.Next() {
		var entity domain.Sale
		var total string
		var saleDate sql.NullString
		if err := rows.Scan(&entity.ID, &entity.ClientID, &total, &saleDate); err != nil {
			return nil, err
		}
		entity.Total, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total of sale %s: %w", entity.ID, err)
		}
		entity.Date = storage.ScanDate(saleDate)
		results = append(results, entity)
	}
	return results, rows.Err()
}

// ReplaceAll swaps the mirrored sales for values.
// PRE: tx is an open transaction (or the database for a non-atomic replace)
// POST: The table holds exactly values, in order
func (s *SQLiteStore) ReplaceAll(ctx context.Context, tx storage.Execer, values []domain.Sale) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM sale"); err != nil {
		return fmt.Errorf("clear sales: %w", err)
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sale (id, client_id, total, sale_date) VALUES (?, ?, ?, ?)",
			v.ID, v.ClientID, v.Total.String(), storage.NullDate(v.Date),
		); err != nil {
			return fmt.Errorf("insert sale %s: %w", v.ID, err)
		}
	}
	return nil
}
