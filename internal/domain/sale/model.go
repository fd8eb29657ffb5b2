package sale

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"gymcrm/internal/domain/dates"
)

// Sale is a product sale recorded at the front desk.
type Sale struct {
	ID       string
	ClientID string // empty for walk-in sales
	Total    decimal.Decimal
	Date     time.Time // calendar date at UTC midnight; zero when malformed
}

// Validate checks if the Sale has valid data.
// PRE: Sale struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Total is non-negative
func (s *Sale) Validate() error {
	if s.Total.IsNegative() {
		return errors.New("sale total cannot be negative")
	}
	return nil
}

// InMonth reports whether the sale is dated in the given month.
func (s *Sale) InMonth(year int, month time.Month) bool {
	return dates.SameMonth(s.Date, year, month)
}
