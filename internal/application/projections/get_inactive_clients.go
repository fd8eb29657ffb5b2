package projections

import (
	"cmp"
	"context"
	"slices"
	"time"

	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/membership"
)

// GetInactiveClientsQuery carries input for the inactive radar projection.
type GetInactiveClientsQuery struct {
	DaysSinceLastCheckIn int // clients inactive for more than this many days
}

// GetInactiveClientsDeps holds dependencies for the inactive radar.
type GetInactiveClientsDeps struct {
	Snapshots SnapshotReader
	Engine    *membership.Engine
}

// InactiveClientResult represents a single inactive client.
type InactiveClientResult struct {
	ClientID     string
	Name         string
	Email        string
	Phone        string
	LastCheckIn  string // YYYY-MM-DD or "never"
	DaysInactive int    // -1 when the client never checked in
}

// QueryGetInactiveClients returns active clients who haven't checked in for the
// specified number of days, or never did.
func QueryGetInactiveClients(_ context.Context, query GetInactiveClientsQuery, deps GetInactiveClientsDeps) ([]InactiveClientResult, error) {
	if query.DaysSinceLastCheckIn <= 0 {
		query.DaysSinceLastCheckIn = InactiveAfterDays
	}
	snap := deps.Snapshots.Current()
	today := deps.Engine.Today()

	last := make(map[string]time.Time)
	for _, a := range snap.Attendance() {
		if a.ClientID != "" && a.CheckInTime.After(last[a.ClientID]) {
			last[a.ClientID] = a.CheckInTime
		}
	}

	var results []InactiveClientResult
	for _, c := range snap.Clients() {
		if !c.Active {
			continue
		}
		row := InactiveClientResult{
			ClientID: c.ID,
			Name:     c.DisplayName(),
			Email:    c.Email,
			Phone:    c.Phone,
		}
		checkIn, ok := last[c.ID]
		if !ok {
			row.LastCheckIn = "never"
			row.DaysInactive = -1
			results = append(results, row)
			continue
		}
		day := dates.In(checkIn, deps.Engine.Location)
		days := dates.DaysBetween(day, today)
		if days > query.DaysSinceLastCheckIn {
			row.LastCheckIn = dates.Format(day)
			row.DaysInactive = days
			results = append(results, row)
		}
	}

	// Longest inactive first; never-seen clients last.
	slices.SortFunc(results, func(a, b InactiveClientResult) int {
		if c := cmp.Compare(b.DaysInactive, a.DaysInactive); c != 0 {
			return c
		}
		return cmp.Compare(a.ClientID, b.ClientID)
	})
	return results, nil
}
