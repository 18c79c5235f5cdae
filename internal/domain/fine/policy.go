package fine

import "time"

// Pure overdue/fine arithmetic. No state, no clock: callers pass the instants
// in and persist the result themselves.

const hoursPerDay = 24 * time.Hour

// Policy carries the configured fine parameters. Amounts are integer minor
// currency units.
type Policy struct {
	RatePerDay      int64
	GracePeriodDays int
	MaxFine         int64
}

func IsOverdue(dueDate, asOf time.Time) bool {
	return asOf.After(dueDate)
}

// OverdueDays is the elapsed time past the due date truncated (not rounded)
// to whole days, never negative. 23 hours late is 0 days.
func OverdueDays(dueDate, asOf time.Time) int {
	if !asOf.After(dueDate) {
		return 0
	}
	return int(asOf.Sub(dueDate) / hoursPerDay)
}

// Compute returns the fine owed for a loan due at dueDate and returned at
// returnedAt. The grace period absorbs leading overdue days; a chargeable-day
// count of zero yields no fine even if the loan is nominally overdue.
func (p Policy) Compute(dueDate, returnedAt time.Time) int64 {
	if !IsOverdue(dueDate, returnedAt) {
		return 0
	}
	chargeable := OverdueDays(dueDate, returnedAt) - p.GracePeriodDays
	if chargeable <= 0 {
		return 0
	}
	amount := int64(chargeable) * p.RatePerDay
	if amount > p.MaxFine {
		amount = p.MaxFine
	}
	return amount
}
