package projections

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/membership"
)

// GetMonthlyTotalQuery carries input for the monthly income projection.
type GetMonthlyTotalQuery struct {
	Month string // YYYY-MM
}

// GetMonthlyTotalDeps holds dependencies for the monthly income projection.
type GetMonthlyTotalDeps struct {
	Snapshots SnapshotReader
}

// MonthlyTotalResult is the income of one calendar month.
type MonthlyTotalResult struct {
	Month          string
	Payments       decimal.Decimal
	PaymentCount   int
	Sales          decimal.Decimal
	SaleCount      int
	Total          decimal.Decimal
	SkippedInvalid int
}

// QueryGetMonthlyTotal totals paid payments and sales for a YYYY-MM month.
// PRE: query.Month is YYYY-MM
// POST: Returns ErrInvalidQuery for a malformed month
func QueryGetMonthlyTotal(_ context.Context, query GetMonthlyTotalQuery, deps GetMonthlyTotalDeps) (MonthlyTotalResult, error) {
	year, month, err := dates.ParseMonth(query.Month)
	if err != nil {
		return MonthlyTotalResult{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	snap := deps.Snapshots.Current()
	payments, err := membership.TotalPaymentsForMonth(snap.Payments(), month, year)
	if err != nil {
		return MonthlyTotalResult{}, err
	}

	result := MonthlyTotalResult{
		Month:          fmt.Sprintf("%04d-%02d", year, int(month)),
		Payments:       payments.Amount,
		PaymentCount:   payments.Count,
		Sales:          decimal.Zero,
		SkippedInvalid: payments.SkippedInvalid,
	}
	for _, s := range snap.Sales() {
		if s.InMonth(year, month) {
			result.Sales = result.Sales.Add(s.Total)
			result.SaleCount++
		}
	}
	result.Total = result.Payments.Add(result.Sales)
	return result, nil
}
