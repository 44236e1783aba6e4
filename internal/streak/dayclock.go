package streak

import "time"

// civilDay returns midnight UTC of the calendar date y-m-d. Differencing two
// civil days never crosses a DST transition.
func civilDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayNumber maps a challenge start date and "now" to a 1-based day number.
// startDate is a calendar date: its own year/month/day are used as-is. now is
// cut to a calendar date in loc. Both sides are midnights before
// differencing, so any time on the start date is day 1.
func DayNumber(startDate, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	sy, sm, sd := startDate.Date()
	ny, nm, nd := now.In(loc).Date()

	days := int(civilDay(ny, nm, nd).Sub(civilDay(sy, sm, sd)) / (24 * time.Hour))
	if days+1 < 1 {
		return 1
	}
	return days + 1
}

// DateForDay is the inverse of DayNumber for day >= 1.
func DateForDay(startDate time.Time, day int) time.Time {
	sy, sm, sd := startDate.Date()
	return civilDay(sy, sm, sd).AddDate(0, 0, day-1)
}

// StartDate normalizes a date to the civil-day representation stored on challenges.
func StartDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return civilDay(y, m, d)
}
