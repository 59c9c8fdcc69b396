package algorithms

import (
	"time"
)

// FreeWeeklyApplicationLimit is the number of applications a job seeker
// without a subscription may submit per calendar week.
const FreeWeeklyApplicationLimit = 3

// WeekStart returns Monday 00:00:00 of the week containing t, in t's
// location.
func WeekStart(t time.Time) time.Time {
	// time.Weekday puts Sunday at 0; shift so Monday is the anchor.
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

// SameQuotaWeek reports whether the stored week anchor still covers now.
// A nil anchor means the counter was never started and never covers.
func SameQuotaWeek(anchor *time.Time, now time.Time) bool {
	if anchor == nil {
		return false
	}
	return WeekStart(now).Equal(WeekStart(*anchor))
}
