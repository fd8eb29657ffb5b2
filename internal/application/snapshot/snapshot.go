// Package snapshot holds the immutable in-memory copy of the gym's data that
// every query reads from.
package snapshot

import (
	"slices"
	"time"

	"gymcrm/internal/domain/attendance"
	"gymcrm/internal/domain/client"
	"gymcrm/internal/domain/payment"
	"gymcrm/internal/domain/sale"
)

// Data is the raw material of a snapshot.
type Data struct {
	Clients    []client.Client
	Payments   []payment.Payment
	Attendance []attendance.Attendance
	Sales      []sale.Sale
	FetchedAt  time.Time
}

// Snapshot is a read-only view of one Data. Accessors return copies, so a
// Snapshot can be shared between goroutines without locking.
type Snapshot struct {
	clients    []client.Client
	payments   []payment.Payment
	attendance []attendance.Attendance
	sales      []sale.Sale
	fetchedAt  time.Time

	clientIndex      map[string]int
	paymentsByClient map[string][]int
}

// New builds a Snapshot from d. d's slices are copied; later changes to
// them do not affect the Snapshot.
// PRE: none
// POST: Returns an immutable snapshot
// INVARIANT: Duplicate client ids resolve to the last occurrence
func New(d Data) *Snapshot {
	s := &Snapshot{
		clients:          slices.Clone(d.Clients),
		payments:         slices.Clone(d.Payments),
		attendance:       slices.Clone(d.Attendance),
		sales:            slices.Clone(d.Sales),
		fetchedAt:        d.FetchedAt,
		clientIndex:      make(map[string]int, len(d.Clients)),
		paymentsByClient: make(map[string][]int),
	}
	for i, c := range s.clients {
		s.clientIndex[c.ID] = i
	}
	for i, p := range s.payments {
		s.paymentsByClient[p.ClientID] = append(s.paymentsByClient[p.ClientID], i)
	}
	return s
}

// Empty returns a snapshot with no data.
func Empty() *Snapshot {
	return New(Data{})
}

// FetchedAt returns when the data was pulled from the CRM; zero if never.
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// IsEmpty reports whether the snapshot was never filled.
func (s *Snapshot) IsEmpty() bool {
	return s.fetchedAt.IsZero() && len(s.clients) == 0 && len(s.payments) == 0
}

// Clients returns a copy of the roster.
func (s *Snapshot) Clients() []client.Client { return slices.Clone(s.clients) }

// Payments returns a copy of every payment.
func (s *Snapshot) Payments() []payment.Payment { return slices.Clone(s.payments) }

// Attendance returns a copy of every check-in.
func (s *Snapshot) Attendance() []attendance.Attendance { return slices.Clone(s.attendance) }

// Sales returns a copy of every sale.
func (s *Snapshot) Sales() []sale.Sale { return slices.Clone(s.sales) }

// Client looks up a client by id.
func (s *Snapshot) Client(id string) (client.Client, bool) {
	i, ok := s.clientIndex[id]
	if !ok {
		return client.Client{}, false
	}
	return s.clients[i], true
}

// PaymentsOf returns a copy of the payments of one client.
func (s *Snapshot) PaymentsOf(clientID string) []payment.Payment {
	idx := s.paymentsByClient[clientID]
	out := make([]payment.Payment, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.payments[i])
	}
	return out
}

// Counts returns the number of records per collection, keyed by the CRM's
// collection names.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"clientes":    len(s.clients),
		"pagos":       len(s.payments),
		"asistencias": len(s.attendance),
		"ventas":      len(s.sales),
	}
}

// InvalidPaymentDates returns the number of paid payments whose date could not be read.
func (s *Snapshot) InvalidPaymentDates() int {
	n := 0
	for _, p := range s.payments {
		if p.Paid && !p.HasValidDate() {
			n++
		}
	}
	return n
}
