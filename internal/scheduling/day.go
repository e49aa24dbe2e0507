package scheduling

import "time"

const dayLayout = "2006-01-02"

// Day drops the time-of-day and the location of t, keeping its calendar date
// as seen in t's own location. The result is midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey is the canonical YYYY-MM-DD form of t's calendar date.
func DayKey(t time.Time) string {
	return Day(t).Format(dayLayout)
}

// ParseDay parses a YYYY-MM-DD string into a Day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(dayLayout, s)
}

func addDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}
