package projections

import (
	"context"
	"fmt"
	"time"

	"gymcrm/internal/domain/dates"
	"gymcrm/internal/domain/membership"
)

// GetMembershipStatusQuery carries input for the single-client status projection.
type GetMembershipStatusQuery struct {
	ClientID string
}

// GetMembershipStatusDeps holds dependencies for the status projection.
type GetMembershipStatusDeps struct {
	Snapshots SnapshotReader
	Engine    *membership.Engine
}

// MembershipStatusResult is the presentation of one client's membership.
type MembershipStatusResult struct {
	ClientID        string
	Name            string
	Email           string
	Status          membership.Status
	Label           string
	Color           string
	Days            int
	DueDate         string // YYYY-MM-DD, empty when never paid
	LastPaymentDate string
	LastPaymentID   string
	SkippedInvalid  int
	MissingData     bool
	EvaluatedOn     string
}

// QueryGetMembershipStatus evaluates the membership of one client as of today.
// PRE: query.ClientID is non-empty
// POST: Returns the status, or ErrClientNotFound when the client is not in the snapshot
func QueryGetMembershipStatus(_ context.Context, query GetMembershipStatusQuery, deps GetMembershipStatusDeps) (MembershipStatusResult, error) {
	if query.ClientID == "" {
		return MembershipStatusResult{}, fmt.Errorf("%w: client id is required", ErrInvalidQuery)
	}
	snap := deps.Snapshots.Current()
	c, ok := snap.Client(query.ClientID)
	if !ok {
		return MembershipStatusResult{}, fmt.Errorf("%w: %s", ErrClientNotFound, query.ClientID)
	}
	today := deps.Engine.Today()
	res := membership.Evaluate(c, snap.PaymentsOf(c.ID), today)
	out := presentStatus(res, today)
	out.ClientID = c.ID
	out.Name = c.DisplayName()
	out.Email = c.Email
	return out, nil
}

func presentStatus(res membership.Result, today time.Time) MembershipStatusResult {
	out := MembershipStatusResult{
		Status:         res.Status,
		Label:          res.Status.Label(),
		Color:          res.Status.Color(),
		Days:           res.Days,
		DueDate:        dates.Format(res.DueDate),
		SkippedInvalid: res.SkippedInvalid,
		MissingData:    res.Reason != nil,
		EvaluatedOn:    dates.Format(today),
	}
	if res.LastPayment != nil {
		out.LastPaymentDate = dates.Format(res.LastPayment.PaymentDate)
		out.LastPaymentID = res.LastPayment.ID
	}
	return out
}
