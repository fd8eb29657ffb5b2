package payment_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gymcrm/internal/domain/payment"
)

// TestParseMembershipType tests normalization of the free-text plan names.
func TestParseMembershipType(t *testing.T) {
	tests := []struct {
		raw     string
		want    payment.MembershipType
		wantErr bool
	}{
		{"Mensual", payment.TypeMonthly, false},
		{"mensual", payment.TypeMonthly, false},
		{" MONTHLY ", payment.TypeMonthly, false},
		{"Anual", payment.TypeAnnual, false},
		{"annual", payment.TypeAnnual, false},
		{"yearly", payment.TypeAnnual, false},
		{"Trimestral", payment.TypeAnnual, false},
		{"semestral", payment.TypeAnnual, false},
		{"", "", true},
		{"semanal", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := payment.ParseMembershipType(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMembershipType(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMembershipType(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestMembershipTypeMonths tests the plan interval lengths.
func TestMembershipTypeMonths(t *testing.T) {
	if got := payment.TypeMonthly.Months(); got != 1 {
		t.Errorf("Monthly.Months() = %d, want 1", got)
	}
	if got := payment.TypeAnnual.Months(); got != 12 {
		t.Errorf("Annual.Months() = %d, want 12", got)
	}
	if got := payment.MembershipType("weekly").Months(); got != 0 {
		t.Errorf("unknown.Months() = %d, want 0", got)
	}
}

// TestPaymentValidation tests validation of Payment.
func TestPaymentValidation(t *testing.T) {
	valid := payment.Payment{
		ID:             "1",
		ClientID:       "7",
		Amount:         decimal.NewFromInt(15000),
		MembershipType: payment.TypeMonthly,
		PaymentDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Paid:           true,
	}

	tests := []struct {
		name    string
		mutate  func(p *payment.Payment)
		wantErr error
	}{
		{"valid payment", func(p *payment.Payment) {}, nil},
		{"zero date is allowed", func(p *payment.Payment) { p.PaymentDate = time.Time{} }, nil},
		{"zero amount is allowed", func(p *payment.Payment) { p.Amount = decimal.Zero }, nil},
		{"missing client", func(p *payment.Payment) { p.ClientID = " " }, payment.ErrMissingClient},
		{"negative amount", func(p *payment.Payment) { p.Amount = decimal.NewFromInt(-1) }, payment.ErrNegativeAmount},
		{"unknown type", func(p *payment.Payment) { p.MembershipType = "weekly" }, payment.ErrUnknownMembershipType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestPaymentCountsFor tests the paid-and-owned filter.
func TestPaymentCountsFor(t *testing.T) {
	p := payment.Payment{ClientID: "7", Paid: true}
	if !p.CountsFor("7") {
		t.Error("paid payment should count for its client")
	}
	if p.CountsFor("8") {
		t.Error("payment should not count for another client")
	}
	p.Paid = false
	if p.CountsFor("7") {
		t.Error("unpaid payment should not count")
	}
}
