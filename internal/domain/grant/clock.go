package grant

import (
	"time"
)

// ResubmissionWindow is how long a scholar has to resubmit after a rejection.
// Fixed by business rule; kept as a single constant so a per-organization
// override has one place to land if it ever becomes configurable.
const ResubmissionWindow = 5 * 24 * time.Hour

// Clock resolves "now" for every component that needs it. Injecting it keeps a
// single logical operation on one instant and makes tests deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// CurrentReferenceMonth returns the reference month containing the clock's now
func CurrentReferenceMonth(c Clock) ReferenceMonth {
	return NewReferenceMonth(c.Now())
}

// ClassifyReferenceMonth classifies a reference month as past, current or
// future by comparing first-of-month dates against the clock's now.
func ClassifyReferenceMonth(c Clock, rm ReferenceMonth) MonthClass {
	current := CurrentReferenceMonth(c).FirstOfMonth()
	target := rm.FirstOfMonth()
	switch {
	case target.Before(current):
		return MonthPast
	case target.After(current):
		return MonthFuture
	default:
		return MonthCurrent
	}
}

// ResubmissionDeadline computes the cutoff for resubmitting a corrected report
func ResubmissionDeadline(from time.Time) time.Time {
	return from.Add(ResubmissionWindow)
}

// IsExpired reports whether a deadline has passed at the clock's now
func IsExpired(c Clock, deadline time.Time) bool {
	return c.Now().After(deadline)
}
