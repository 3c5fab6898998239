package shared

import "time"

// Clock returns the current time. Calendar-month windows are computed in
// the location of the times it returns.
type Clock func() time.Time

// SystemClock reads the server's local clock
func SystemClock() time.Time {
	return time.Now()
}

// Or returns c, or SystemClock when c is nil
func (c Clock) Or() Clock {
	if c == nil {
		return SystemClock
	}
	return c
}
