package sale_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gymcrm/internal/domain/sale"
)

// TestSaleValidation tests validation of Sale.
func TestSaleValidation(t *testing.T) {
	ok := sale.Sale{Total: decimal.NewFromInt(100)}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
	bad := sale.Sale{Total: decimal.NewFromInt(-5)}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() expected error for negative total")
	}
}

// TestSaleInMonth tests month matching and malformed dates.
func TestSaleInMonth(t *testing.T) {
	s := sale.Sale{Date: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)}
	if !s.InMonth(2024, time.March) {
		t.Error("expected sale in March 2024")
	}
	if s.InMonth(2023, time.March) {
		t.Error("sale should not match another year")
	}
	if (&sale.Sale{}).InMonth(1, time.January) {
		t.Error("zero date should never match")
	}
}
