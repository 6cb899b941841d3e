// internal/quota/period.go

package quota

import "time"

// periodKey formats the period component of a counter key. Daily resources key
// on the UTC date, monthly ones on the UTC year-month, so a counter can never
// leak across a reset boundary.
func periodKey(resource Resource, now time.Time) string {
	now = now.UTC()
	if resource == ResourceMonthlyMessages {
		return now.Format("2006-01")
	}
	return now.Format("2006-01-02")
}

// periodEnd returns the next reset instant: 00:00 UTC of the following day, or
// of the first of the following month for monthly resources.
func periodEnd(resource Resource, now time.Time) time.Time {
	now = now.UTC()
	if resource == ResourceMonthlyMessages {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
