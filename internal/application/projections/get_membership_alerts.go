package projections

import (
	"cmp"
	"context"
	"slices"

	"gymcrm/internal/application/listutil"
	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/membership"
)

// GetMembershipAlertsQuery carries input for the membership alerts list.
type GetMembershipAlertsQuery struct {
	Status   membership.Status // empty for every status
	Page     listutil.PageParams
	SkipPage bool // return every matching row
}

// GetMembershipAlertsDeps holds dependencies for the alerts list.
type GetMembershipAlertsDeps struct {
	Snapshots SnapshotReader
	Engine    *membership.Engine
}

// GetMembershipAlertsResult is one page of client statuses ordered by urgency.
type GetMembershipAlertsResult struct {
	Items          []MembershipStatusResult
	PageInfo       listutil.PageInfo
	Counts         map[membership.Status]int
	SkippedInvalid int
	EvaluatedOn    string
}

// QueryGetMembershipAlerts evaluates every client and lists them most urgent first.
// Overdue clients come first (longest overdue leading), then due-soon clients
// (soonest due leading), then current ones, then clients with missing data.
// PRE: query.Status is empty or a valid status
// POST: Counts covers every client regardless of the status filter
func QueryGetMembershipAlerts(_ context.Context, query GetMembershipAlertsQuery, deps GetMembershipAlertsDeps) (GetMembershipAlertsResult, error) {
	if query.Status != "" && !query.Status.IsValid() {
		return GetMembershipAlertsResult{}, ErrInvalidQuery
	}
	snap := deps.Snapshots.Current()
	today := deps.Engine.Today()

	result := GetMembershipAlertsResult{
		Counts:      make(map[membership.Status]int),
		EvaluatedOn: dates.Format(today),
	}
	var rows []MembershipStatusResult
	for _, c := range snap.Clients() {
		res := membership.Evaluate(c, snap.PaymentsOf(c.ID), today)
		result.Counts[res.Status]++
		result.SkippedInvalid += res.SkippedInvalid
		if query.Status != "" && res.Status != query.Status {
			continue
		}
		row := presentStatus(res, today)
		row.ClientID = c.ID
		row.Name = c.DisplayName()
		row.Email = c.Email
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, compareUrgency)
	if query.SkipPage {
		result.Items = rows
		result.PageInfo = listutil.NewPageInfo(1, max(len(rows), 1), len(rows))
		return result, nil
	}
	result.Items, result.PageInfo = listutil.Paginate(rows, query.Page)
	return result, nil
}

var urgencyRank = map[membership.Status]int{
	membership.StatusOverdue: 0,
	membership.StatusDueSoon: 1,
	membership.StatusCurrent: 2,
	membership.StatusUnknown: 3,
}

func compareUrgency(a, b MembershipStatusResult) int {
	if c := cmp.Compare(urgencyRank[a.Status], urgencyRank[b.Status]); c != 0 {
		return c
	}
	if a.Status == membership.StatusOverdue {
		if c := cmp.Compare(b.Days, a.Days); c != 0 {
			return c
		}
	} else if c := cmp.Compare(a.Days, b.Days); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ClientID, b.ClientID)
}
