package attendance

import (
	"errors"
	"time"

	"gymcrm/internal/domain/dates"
)

// Attendance is one gym check-in.
type Attendance struct {
	ID           string
	ClientID     string
	CheckInTime  time.Time
	CheckOutTime time.Time // zero while the client is still in the gym
}

// Validate checks if the Attendance has valid data.
// PRE: Attendance struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ClientID must not be empty, CheckInTime must be set
func (a *Attendance) Validate() error {
	if a.ClientID == "" {
		return errors.New("attendance must be associated with a client")
	}
	if a.CheckInTime.IsZero() {
		return errors.New("check-in time must be set")
	}
	if !a.CheckOutTime.IsZero() && a.CheckOutTime.Before(a.CheckInTime) {
		return errors.New("check-out time cannot be before check-in time")
	}
	return nil
}

// Day returns the calendar date of the check-in in loc.
// PRE: Attendance is initialized with CheckInTime
// POST: Returns the civil date at UTC midnight
func (a *Attendance) Day(loc *time.Location) time.Time {
	return dates.In(a.CheckInTime, loc)
}

// Hour returns the local hour of day of the check-in.
func (a *Attendance) Hour(loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return a.CheckInTime.In(loc).Hour()
}
