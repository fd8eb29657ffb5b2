package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the calendar date format used on the wire and in storage.
const Layout = "2006-01-02"

// ErrInvalidDate is returned when a value cannot be read as a calendar date.
var ErrInvalidDate = errors.New("invalid date")

// layouts are tried in order; the remote API sends either bare dates or
// timestamps depending on the column type behind the endpoint.
var layouts = []string{
	Layout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
}

// Parse reads a date or timestamp string and returns the calendar date it names.
// PRE: none
// POST: Returns a date at UTC midnight, or ErrInvalidDate
// INVARIANT: A timestamp keeps the calendar day as written, not as seen from UTC
func Parse(value string) (time.Time, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}, err
	}
	return Of(t), nil
}

// ParseTimestamp reads a date or timestamp string, keeping the time of day.
// Values without a zone are read as UTC.
// PRE: none
// POST: Returns the parsed instant, or ErrInvalidDate
func ParseTimestamp(value string) (time.Time, error) {
	return ParseTimestampIn(value, time.UTC)
}

// ParseTimestampIn is ParseTimestamp with zone-less values read in loc.
func ParseTimestampIn(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// Of returns the calendar date of t (in t's own location) at UTC midnight.
func Of(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// In returns the calendar date of t as observed in loc.
func In(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Of(t.In(loc))
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths adds n calendar months to the date of t.
// When the day does not exist in the target month it is clamped to the
// month's last day: Jan 31 + 1 month is Feb 28 (or Feb 29 in a leap year).
// PRE: t is non-zero
// POST: Returns a date at UTC midnight
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := Of(t).Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from `from` to `to`.
// Negative when `to` is before `from`. Counts day numbers rather than a
// time.Duration, which saturates at about 292 years.
func DaysBetween(from, to time.Time) int {
	return int(dayNumber(to) - dayNumber(from))
}

// dayNumber is the count of days since the Unix epoch for the calendar date of t.
func dayNumber(t time.Time) int64 {
	return Of(t).Unix() / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60

// SameMonth reports whether t falls within the given month and year.
func SameMonth(t time.Time, year int, month time.Month) bool {
	if t.IsZero() {
		return false
	}
	y, m, _ := t.Date()
	return y == year && m == month
}

// Format renders a calendar date, or "" for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// ParseMonth reads a "YYYY-MM" string.
// PRE: none
// POST: Returns the year and month, or ErrInvalidDate
func ParseMonth(value string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month %q", ErrInvalidDate, value)
	}
	return t.Year(), t.Month(), nil
}
