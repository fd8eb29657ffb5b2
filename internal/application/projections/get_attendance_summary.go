package projections

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"gymcrm/internal/domain/dates"
)

// GetAttendanceSummaryQuery carries input for the attendance summary.
// Zero bounds are open; both bounds are inclusive calendar dates.
type GetAttendanceSummaryQuery struct {
	From time.Time
	To   time.Time
}

// GetAttendanceSummaryDeps holds dependencies for the attendance summary.
type GetAttendanceSummaryDeps struct {
	Snapshots SnapshotReader
	Location  *time.Location
}

// ClientAttendance is the attendance of one client within the range.
type ClientAttendance struct {
	ClientID    string
	Name        string
	Count       int
	LastCheckIn time.Time
}

// DayAttendance is the number of check-ins on one calendar date.
type DayAttendance struct {
	Date  string
	Count int
}

// AttendanceSummaryResult groups check-ins by client and by day.
type AttendanceSummaryResult struct {
	Total    int
	ByClient []ClientAttendance // most frequent first
	ByDay    []DayAttendance    // chronological
}

// QueryGetAttendanceSummary groups the check-ins in [From, To] by client and by day.
// PRE: From is not after To when both are set
// POST: only clients with at least one check-in in range are listed
func QueryGetAttendanceSummary(_ context.Context, query GetAttendanceSummaryQuery, deps GetAttendanceSummaryDeps) (AttendanceSummaryResult, error) {
	from, to := dates.Of(query.From), dates.Of(query.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return AttendanceSummaryResult{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidQuery, dates.Format(from), dates.Format(to))
	}
	snap := deps.Snapshots.Current()

	var result AttendanceSummaryResult
	byClient := make(map[string]*ClientAttendance)
	byDay := make(map[string]int)
	for _, a := range snap.Attendance() {
		if a.CheckInTime.IsZero() {
			continue
		}
		day := a.Day(deps.Location)
		if (!from.IsZero() && day.Before(from)) || (!to.IsZero() && day.After(to)) {
			continue
		}
		result.Total++
		byDay[dates.Format(day)]++
		if a.ClientID == "" {
			continue
		}
		row, ok := byClient[a.ClientID]
		if !ok {
			row = &ClientAttendance{ClientID: a.ClientID, Name: "Cliente " + a.ClientID}
			if c, found := snap.Client(a.ClientID); found {
				row.Name = c.DisplayName()
			}
			byClient[a.ClientID] = row
		}
		row.Count++
		if a.CheckInTime.After(row.LastCheckIn) {
			row.LastCheckIn = a.CheckInTime
		}
	}

	for _, row := range byClient {
		result.ByClient = append(result.ByClient, *row)
	}
	slices.SortFunc(result.ByClient, func(a, b ClientAttendance) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := b.LastCheckIn.Compare(a.LastCheckIn); c != 0 {
			return c
		}
		return cmp.Compare(a.ClientID, b.ClientID)
	})

	for day, n := range byDay {
		result.ByDay = append(result.ByDay, DayAttendance{Date: day, Count: n})
	}
	slices.SortFunc(result.ByDay, func(a, b DayAttendance) int { return cmp.Compare(a.Date, b.Date) })
	return result, nil
}
