package payment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"gymcrm/internal/adapters/storage"
	domain "gymcrm/internal/domain/payment"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new payment Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List retrieves payments in mirror order.
// Amounts are stored as decimal text so no precision is lost.
// PRE: filter has valid parameters
// POST: Returns matching entities; unreadable dates come back as the zero time
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Payment, error) {
	query := "SELECT id, client_id, amount, membership_type, payment_date, paid, method FROM payment"
	var args []any
	if filter.ClientID != "" {
		query += " WHERE client_id = ?"
		args = append(args, filter.ClientID)
	}
	query += " ORDER BY seq LIMIT ? OFFSET ?"
	args = append(args, storage.Limit(filter.Limit), filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Payment
	for rows.Next() {
		var entity domain.Payment
		var amount, membershipType string
		var paymentDate sql.NullString
		var paid int
		if err := rows.Scan(
			&entity.ID,
			&entity.ClientID,
			&amount,
			&membershipType,
			&paymentDate,
			&paid,
			&entity.Method,
		); err != nil {
			return nil, err
		}
		entity.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount of payment %s: %w", entity.ID, err)
		}
		entity.MembershipType = domain.MembershipType(membershipType)
		entity.PaymentDate = storage.ScanDate(paymentDate)
		entity.Paid = paid == 1
		results = append(results, entity)
	}
	return results, rows.Err()
}

// ReplaceAll swaps the mirrored payment history for values.
// PRE: tx is an open transaction (or the database for a non-atomic replace)
// POST: The table holds exactly values, in order
func (s *SQLiteStore) ReplaceAll(ctx context.Context, tx storage.Execer, values []domain.Payment) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM payment"); err != nil {
		return fmt.Errorf("clear payments: %w", err)
	}
	for _, p := range values {
		paid := 0
		if p.Paid {
			paid = 1
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO payment (id, client_id, amount, membership_type, payment_date, paid, method) VALUES (?, ?, ?, ?, ?, ?, ?)",
			p.ID, p.ClientID, p.Amount.String(), string(p.MembershipType), storage.NullDate(p.PaymentDate), paid, p.Method,
		); err != nil {
			return fmt.Errorf("insert payment %s: %w", p.ID, err)
		}
	}
	return nil
}
