package projections

import (
	"time"

	"github.com/shopspring/decimal"

	"gymcrm/internal/application/snapshot"
	"gymcrm/internal/domain/attendance"
	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/membership"
	"gymcrm/internal/domain/payment"
	"gymcrm/internal/domain/sale"
)

type fixedSnapshots struct {
	snap *snapshot.Snapshot
}

// Current returns the seeded snapshot.
func (f fixedSnapshots) Current() *snapshot.Snapshot { return f.snap }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

// fixtureEngine pins today to 2024-06-15.
func fixtureEngine() *membership.Engine {
	return &membership.Engine{
		Now:      func() time.Time { return at(2024, 6, 15, 12, 0) },
		Location: time.UTC,
	}
}

// fixtureSnapshot seeds five clients:
//   - c1 current (paid 2024-06-10), attended today and yesterday
//   - c2 due soon (paid 2024-05-20), registered this month
//   - c3 overdue by 45 days, last seen 2024-05-01
//   - c4 never paid, attending today without check-out
//   - c5 inactive with no registration date
func fixtureSnapshot() fixedSnapshots {
	pay := func(id, clientID string, amount int64, on time.Time, paid bool) payment.Payment {
		return payment.Payment{
			ID:             id,
			ClientID:       clientID,
			Amount:         decimal.NewFromInt(amount),
			MembershipType: payment.TypeMonthly,
			PaymentDate:    on,
			Paid:           paid,
		}
	}
	return fixedSnapshots{snap: snapshot.New(snapshot.Data{
		Clients: []client.Client{
			{ID: "c1", Name: "Ana", Email: "ana@example.com", RegistrationDate: date(2024, 1, 10), Active: true},
			{ID: "c2", Name: "Beto", Email: "beto@example.com", RegistrationDate: date(2024, 6, 2), Active: true},
			{ID: "c3", Name: "Caro", Email: "caro@example.com", RegistrationDate: date(2023, 1, 1), Active: true},
			{ID: "c4", Name: "Dani", Phone: "555-0101", RegistrationDate: date(2024, 3, 1), Active: true},
			{ID: "c5", Name: "Eli"},
		},
		Payments: []payment.Payment{
			pay("p1", "c1", 100, date(2024, 6, 10), true),
			pay("p2", "c2", 50, date(2024, 5, 20), true),
			pay("p3", "c3", 80, date(2024, 4, 1), true),
			pay("p4", "c4", 30, date(2024, 6, 15), false),
			pay("p5", "c1", 10, time.Time{}, true),
		},
		Attendance: []attendance.Attendance{
			{ID: "a1", ClientID: "c1", CheckInTime: at(2024, 6, 15, 9, 10), CheckOutTime: at(2024, 6, 15, 10, 0)},
			{ID: "a2", ClientID: "c4", CheckInTime: at(2024, 6, 15, 18, 30)},
			{ID: "a3", ClientID: "c1", CheckInTime: at(2024, 6, 14, 8, 5)},
			{ID: "a4", ClientID: "c3", CheckInTime: at(2024, 5, 1, 10, 0)},
			{ID: "a5", ClientID: "c2", CheckInTime: at(2024, 6, 10, 19, 59)},
		},
		Sales: []sale.Sale{
			{ID: "s1", Total: decimal.NewFromInt(20), Date: date(2024, 6, 15)},
			{ID: "s2", ClientID: "c1", Total: decimal.NewFromInt(5), Date: date(2024, 6, 1)},
			{ID: "s3", Total: decimal.NewFromInt(7), Date: date(2024, 5, 31)},
		},
		FetchedAt: at(2024, 6, 15, 11, 0),
	})}
}
