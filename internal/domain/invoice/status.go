package invoice

import "strings"

// Status is the lifecycle state of an invoice
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusViewed    Status = "VIEWED"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

// AllStatuses returns every valid status in display order
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusSent, StatusViewed, StatusPaid, StatusOverdue, StatusCancelled}
}

// IsValid reports whether s is one of the six known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus parses a status name; matching is exact after trimming
func ParseStatus(v string) (Status, bool) {
	s := Status(strings.TrimSpace(v))
	return s, s.IsValid()
}

// Label returns the human readable form used on documents
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(string(s))
	return strings.ToUpper(lower[:1]) + lower[1:]
}
