package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MembershipType is the plan interval a payment renews.
type MembershipType string

// Membership types. The remote API sends free text; see ParseMembershipType.
const (
	TypeMonthly MembershipType = "monthly"
	TypeAnnual  MembershipType = "annual"
)

// Domain errors
var (
	ErrUnknownMembershipType = errors.New("unknown membership type")
	ErrMissingClient         = errors.New("payment must belong to a client")
	ErrNegativeAmount        = errors.New("payment amount cannot be negative")
)

var typeAliases = map[string]MembershipType{
	"mensual":   TypeMonthly,
	"monthly":   TypeMonthly,
	"mes":       TypeMonthly,
	"month":     TypeMonthly,
	"anual":     TypeAnnual,
	"annual":    TypeAnnual,
	"yearly":    TypeAnnual,
	"año":       TypeAnnual,
	"anualidad": TypeAnnual,
	// The CRM's payment form also offers these; every plan other than
	// monthly renews on the twelve-month interval.
	"trimestral": TypeAnnual,
	"semestral":  TypeAnnual,
}

// ParseMembershipType normalizes the free-text plan name used by the remote API.
// PRE: none
// POST: Returns a known type, or ErrUnknownMembershipType
func ParseMembershipType(raw string) (MembershipType, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, nil
	}
	return "", ErrUnknownMembershipType
}

// IsValid reports whether t is one of the known membership types.
func (t MembershipType) IsValid() bool {
	return t == TypeMonthly || t == TypeAnnual
}

// Months returns the plan interval in calendar months, or 0 for an unknown type.
func (t MembershipType) Months() int {
	switch t {
	case TypeMonthly:
		return 1
	case TypeAnnual:
		return 12
	}
	return 0
}

// Payment is one recorded membership payment.
type Payment struct {
	ID             string
	ClientID       string
	Amount         decimal.Decimal
	MembershipType MembershipType
	PaymentDate    time.Time // calendar date at UTC midnight; zero when absent or malformed
	Paid           bool
	Method         string
}

// Validate checks the fields the ingestion boundary must guarantee.
// A zero PaymentDate is allowed: such records are kept and skipped by scans.
// PRE: Payment struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ClientID is non-empty, Amount is non-negative, MembershipType is known
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.ClientID) == "" {
		return ErrMissingClient
	}
	if p.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !p.MembershipType.IsValid() {
		return ErrUnknownMembershipType
	}
	return nil
}

// HasValidDate reports whether the payment date was readable.
func (p *Payment) HasValidDate() bool {
	return !p.PaymentDate.IsZero()
}

// CountsFor reports whether the payment is a paid payment of clientID.
func (p *Payment) CountsFor(clientID string) bool {
	return p.Paid && p.ClientID == clientID
}
