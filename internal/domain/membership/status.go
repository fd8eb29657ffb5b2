package membership

// Status is the derived standing of a client's membership.
// It is recomputed on every evaluation and never stored.
type Status string

const (
	StatusCurrent Status = "current"
	StatusDueSoon Status = "due_soon"
	StatusOverdue Status = "overdue"
	StatusUnknown Status = "unknown"
)

// DueSoonWindow is the number of days before the due date during which a
// membership is reported as due soon (inclusive on both ends).
const DueSoonWindow = 7

// Label returns the badge text shown to gym staff.
func (s Status) Label() string {
	switch s {
	case StatusCurrent:
		return "Al día"
	case StatusDueSoon:
		return "Por vencer"
	case StatusOverdue:
		return "Vencido"
	}
	return "Sin datos"
}

// Color returns the badge color.
func (s Status) Color() string {
	switch s {
	case StatusCurrent:
		return "green"
	case StatusDueSoon:
		return "yellow"
	case StatusOverdue:
		return "red"
	}
	return "gray"
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusCurrent, StatusDueSoon, StatusOverdue, StatusUnknown:
		return true
	}
	return false
}

// NeedsReminder reports whether a client in this status should be reminded to pay.
func (s Status) NeedsReminder() bool {
	return s == StatusDueSoon || s == StatusOverdue
}

// ParseStatus reads a status name, accepting the labels as well.
func ParseStatus(raw string) (Status, bool) {
	for _, s := range []Status{StatusCurrent, StatusDueSoon, StatusOverdue, StatusUnknown} {
		if raw == string(s) || raw == s.Label() {
			return s, true
		}
	}
	return "", false
}
