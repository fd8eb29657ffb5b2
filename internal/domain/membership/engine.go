package membership

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/payment"
)

// Errors returned by the engine. Per-record data problems never surface as
// errors; they are excluded from scans and counted instead.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrMissingData  = errors.New("missing data")
	ErrPrecondition = errors.New("precondition failed")
)

// Result is the outcome of evaluating one client's membership.
type Result struct {
	Status Status
	// Days is the number of days remaining (Current, DueSoon) or elapsed
	// since the due date (Overdue). Always 0 for Unknown and for clients
	// who never paid.
	Days           int
	DueDate        time.Time
	LastPayment    *payment.Payment
	SkippedInvalid int
	// Reason is ErrMissingData when Status is Unknown.
	Reason error
}

// LatestPaidPayment returns the paid payment of clientID with the latest date.
// PRE: none
// POST: Returns the selected payment and true, or false when none qualifies
// INVARIANT: Input order does not affect the result; ties go to the highest id
func LatestPaidPayment(payments []payment.Payment, clientID string) (payment.Payment, bool) {
	p, ok, _ := latestPaid(payments, clientID)
	return p, ok
}

func latestPaid(payments []payment.Payment, clientID string) (payment.Payment, bool, int) {
	var (
		best    payment.Payment
		found   bool
		skipped int
	)
	for _, p := range payments {
		if !p.CountsFor(clientID) {
			continue
		}
		if !p.HasValidDate() || !p.MembershipType.IsValid() {
			skipped++
			continue
		}
		if !found || p.PaymentDate.After(best.PaymentDate) ||
			(p.PaymentDate.Equal(best.PaymentDate) && compareIDs(p.ID, best.ID) > 0) {
			best, found = p, true
		}
	}
	return best, found, skipped
}

// compareIDs orders numeric ids numerically and anything else lexicographically.
func compareIDs(a, b string) int {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// ComputeDueDate adds the plan interval of membershipType to baseDate.
// Days past the end of the target month are clamped to its last day.
// PRE: baseDate is non-zero, membershipType is known
// POST: Returns the due date at UTC midnight, or ErrInvalidInput
func ComputeDueDate(baseDate time.Time, membershipType payment.MembershipType) (time.Time, error) {
	if baseDate.IsZero() {
		return time.Time{}, fmt.Errorf("%w: base date is not set", ErrInvalidInput)
	}
	months := membershipType.Months()
	if months == 0 {
		return time.Time{}, fmt.Errorf("%w: membership type %q", ErrInvalidInput, membershipType)
	}
	return dates.AddMonths(baseDate, months), nil
}

// Evaluate classifies the membership of c as of the calendar date of today.
// payments may hold records of other clients; they are filtered here.
// PRE: none
// POST: Returns a Result; never fails
// INVARIANT: payments is not mutated; identical inputs give identical results
func Evaluate(c client.Client, payments []payment.Payment, today time.Time) Result {
	if strings.TrimSpace(c.ID) == "" || !c.IsRegistered() {
		return Result{Status: StatusUnknown, Reason: ErrMissingData}
	}

	latest, ok, skipped := latestPaid(payments, c.ID)
	if !ok {
		return Result{Status: StatusOverdue, SkippedInvalid: skipped}
	}

	// latestPaid only yields valid dates and types, so this cannot fail.
	due, _ := ComputeDueDate(latest.PaymentDate, latest.MembershipType)
	remaining := dates.DaysBetween(today, due)

	res := Result{
		DueDate:        due,
		LastPayment:    &latest,
		SkippedInvalid: skipped,
	}
	switch {
	case remaining < 0:
		res.Status, res.Days = StatusOverdue, -remaining
	case remaining <= DueSoonWindow:
		res.Status, res.Days = StatusDueSoon, remaining
	default:
		res.Status, res.Days = StatusCurrent, remaining
	}
	return res
}

// Engine evaluates memberships against a clock.
type Engine struct {
	Now      func() time.Time
	Location *time.Location // gym time zone; UTC when nil
}

// NewEngine returns an engine on the wall clock in loc.
func NewEngine(loc *time.Location) *Engine {
	return &Engine{Now: time.Now, Location: loc}
}

// Today returns the current calendar date in the engine's time zone.
func (e *Engine) Today() time.Time {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return dates.In(now(), e.Location)
}

// GetMembershipStatus classifies c as of today.
func (e *Engine) GetMembershipStatus(c client.Client, payments []payment.Payment) Result {
	return Evaluate(c, payments, e.Today())
}

// MonthlyTotal is the paid income of one calendar month.
type MonthlyTotal struct {
	Year           int
	Month          time.Month
	Amount         decimal.Decimal
	Count          int
	SkippedInvalid int
}

// TotalPaymentsForMonth sums the amounts of paid payments dated in month/year.
// Paid payments with a malformed date are excluded and counted.
// PRE: month is within January..December
// POST: Returns the total (zero when nothing matches), or ErrPrecondition
func TotalPaymentsForMonth(payments []payment.Payment, month time.Month, year int) (MonthlyTotal, error) {
	if month < time.January || month > time.December {
		return MonthlyTotal{}, fmt.Errorf("%w: month %d out of range", ErrPrecondition, month)
	}
	total := MonthlyTotal{Year: year, Month: month, Amount: decimal.Zero}
	for _, p := range payments {
		if !p.Paid {
			continue
		}
		if !p.HasValidDate() {
			total.SkippedInvalid++
			continue
		}
		if dates.SameMonth(p.PaymentDate, year, month) {
			total.Amount = total.Amount.Add(p.Amount)
			total.Count++
		}
	}
	return total, nil
}
