package invoice

import (
	"fmt"
	"time"

	"github.com/invoicer/backend/internal/domain/shared"
)

// QuotaExceededMessage is returned to users who hit the free monthly cap
const QuotaExceededMessage = "Invoice limit reached. Upgrade to Pro for unlimited invoices."

// Quota bounds how many invoices a user may create since a point in time
type Quota struct {
	// Limit is ignored when Unlimited is set
	Limit     int
	Unlimited bool
	Since     time.Time
}

// MonthlyQuota returns the quota window for the calendar month containing now
func MonthlyQuota(limit int, unlimited bool, now time.Time) Quota {
	return Quota{Limit: limit, Unlimited: unlimited, Since: MonthStart(now)}
}

// Allows reports whether one more invoice fits given the current count
func (q Quota) Allows(current int64) bool {
	return q.Unlimited || current < int64(q.Limit)
}

// MonthStart returns midnight of the first day of now's month, in now's location
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// PreviousMonthStart returns the first instant of the month before now's month
func PreviousMonthStart(now time.Time) time.Time {
	return MonthStart(now).AddDate(0, -1, 0)
}

// QuotaExceededError is returned when a free user reached the monthly cap
type QuotaExceededError struct {
	CurrentUsage int64
	Limit        int64
	Message      string
}

// Error implements the error interface
func (e *QuotaExceededError) Error() string {
	return e.Message
}

// Is lets errors.Is match shared.ErrQuotaExceeded
func (e *QuotaExceededError) Is(target error) bool {
	return target == shared.ErrQuotaExceeded
}

// Detail returns a short usage summary for logs
func (e *QuotaExceededError) Detail() string {
	return fmt.Sprintf("%d of %d invoices used this month", e.CurrentUsage, e.Limit)
}

// NewQuotaExceededError creates a new QuotaExceededError
func NewQuotaExceededError(current, limit int64) *QuotaExceededError {
	return &QuotaExceededError{
		CurrentUsage: current,
		Limit:        limit,
		Message:      QuotaExceededMessage,
	}
}
