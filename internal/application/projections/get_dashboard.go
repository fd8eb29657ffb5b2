package projections

import (
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"gymcrm/internal/domain/attendance"
	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/membership"
)

// Dashboard chart bounds.
const (
	IncomeTrendDays   = 7
	FirstChartHour    = 8
	LastChartHour     = 19
	InactiveAfterDays = 30
)

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	Date time.Time // reference calendar date; zero means today
}

// GetDashboardDeps holds dependencies for the dashboard.
type GetDashboardDeps struct {
	Snapshots SnapshotReader
	Engine    *membership.Engine
}

// DailyIncome is the paid income of one calendar day.
type DailyIncome struct {
	Date   string
	Amount decimal.Decimal
}

// HourlyAttendance is the number of check-ins that started in one hour of the day.
type HourlyAttendance struct {
	Hour  int
	Count int
}

// DashboardResult aggregates the headline figures for one reference date.
type DashboardResult struct {
	Date             string
	PaymentsIncome   decimal.Decimal // paid payments dated in the reference month
	SalesIncome      decimal.Decimal // sales dated in the reference month
	MonthIncome      decimal.Decimal
	IncomeToday      decimal.Decimal
	AttendanceToday  int
	PresentNow       int // checked in on the reference date without a check-out
	ActiveClients    int
	NewClientsMonth  int
	RetentionPercent decimal.Decimal // one decimal place
	OverdueIDs       []string
	UnpaidAttendees  []string
	InactiveIDs      []string
	IncomeByDay      []DailyIncome
	AttendanceByHour []HourlyAttendance
	StatusCounts     map[membership.Status]int
	SkippedInvalid   int
	FetchedAt        time.Time
}

// QueryGetDashboard computes the dashboard figures from the current snapshot.
// Retention is the share of distinct clients with a paid payment who attended on
// the reference date. Inactive clients are those whose last check-in is more than
// InactiveAfterDays before the reference date.
// PRE: none
// POST: every id list is sorted and free of duplicates
func QueryGetDashboard(_ context.Context, query GetDashboardQuery, deps GetDashboardDeps) (DashboardResult, error) {
	snap := deps.Snapshots.Current()
	loc := deps.Engine.Location
	day := dates.Of(query.Date)
	if query.Date.IsZero() {
		day = deps.Engine.Today()
	}
	year, month, _ := day.Date()

	payments := snap.Payments()
	monthly, err := membership.TotalPaymentsForMonth(payments, month, year)
	if err != nil {
		return DashboardResult{}, err
	}

	result := DashboardResult{
		Date:           dates.Format(day),
		PaymentsIncome: monthly.Amount,
		SalesIncome:    decimal.Zero,
		StatusCounts:   make(map[membership.Status]int),
		SkippedInvalid: monthly.SkippedInvalid,
		FetchedAt:      snap.FetchedAt(),
	}

	dailyIncome := make(map[string]decimal.Decimal) // keyed by YYYY-MM-DD
	paidClients := make(map[string]bool)
	for _, p := range payments {
		if !p.Paid || p.ClientID == "" {
			continue
		}
		paidClients[p.ClientID] = true
		if p.HasValidDate() {
			key := dates.Format(p.PaymentDate)
			dailyIncome[key] = dailyIncome[key].Add(p.Amount)
		}
	}
	for _, s := range snap.Sales() {
		if s.InMonth(year, month) {
			result.SalesIncome = result.SalesIncome.Add(s.Total)
		}
		if !s.Date.IsZero() {
			key := dates.Format(s.Date)
			dailyIncome[key] = dailyIncome[key].Add(s.Total)
		}
	}
	result.MonthIncome = result.PaymentsIncome.Add(result.SalesIncome)
	result.IncomeToday = dailyIncome[result.Date]

	for i := IncomeTrendDays - 1; i >= 0; i-- {
		key := dates.Format(day.AddDate(0, 0, -i))
		result.IncomeByDay = append(result.IncomeByDay, DailyIncome{Date: key, Amount: dailyIncome[key]})
	}

	hourly := make(map[int]int)
	attendedToday := make(map[string]bool)
	lastCheckIn := make(map[string]time.Time)
	unpaid := make(map[string]bool)
	for _, a := range snap.Attendance() {
		if a.ClientID != "" {
			if a.CheckInTime.After(lastCheckIn[a.ClientID]) {
				lastCheckIn[a.ClientID] = a.CheckInTime
			}
		}
		if !a.Day(loc).Equal(day) {
			continue
		}
		result.AttendanceToday++
		hourly[a.Hour(loc)]++
		if a.CheckOutTime.IsZero() {
			result.PresentNow++
		}
		if a.ClientID == "" {
			continue
		}
		attendedToday[a.ClientID] = true
		if !paidClients[a.ClientID] {
			unpaid[a.ClientID] = true
		}
	}
	for h := FirstChartHour; h <= LastChartHour; h++ {
		result.AttendanceByHour = append(result.AttendanceByHour, HourlyAttendance{Hour: h, Count: hourly[h]})
	}

	retained := 0
	for id := range paidClients {
		if attendedToday[id] {
			retained++
		}
	}
	result.RetentionPercent = retention(retained, len(paidClients))

	for id, last := range lastCheckIn {
		a := attendance.Attendance{CheckInTime: last}
		if dates.DaysBetween(a.Day(loc), day) > InactiveAfterDays {
			result.InactiveIDs = append(result.InactiveIDs, id)
		}
	}

	overdue := make(map[string]bool)
	for _, c := range snap.Clients() {
		if c.Active {
			result.ActiveClients++
		}
		if dates.SameMonth(c.RegistrationDate, year, month) {
			result.NewClientsMonth++
		}
		res := membership.Evaluate(c, snap.PaymentsOf(c.ID), day)
		result.StatusCounts[res.Status]++
		if res.Status == membership.StatusOverdue {
			overdue[c.ID] = true
		}
	}
	result.OverdueIDs = sortedKeys(overdue)
	result.UnpaidAttendees = sortedKeys(unpaid)
	slices.Sort(result.InactiveIDs)
	return result, nil
}

func retention(retained, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(retained)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
