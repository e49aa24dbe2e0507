package scheduling

import "time"

// DefaultOccurrences is how many dates a recurring request produces.
const DefaultOccurrences = 5

// Generate returns count calendar days starting at start, spaced by the
// cadence the label describes. The first day is always start itself.
func Generate(start time.Time, label string, count int) []time.Time {
	if count <= 0 {
		return []time.Time{}
	}
	c := ParseCadence(label)
	first := Day(start)

	out := make([]time.Time, 0, count)
	out = append(out, first)
	for i := 1; i < count; i++ {
		if c.Kind == CadenceMonthly {
			out = append(out, addMonthsClamped(first, i))
			continue
		}
		out = append(out, out[i-1].AddDate(0, 0, c.IntervalDays))
	}
	return out
}

// addMonthsClamped moves t by n months keeping its day-of-month; months that
// are too short clamp to their last day (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, time.UTC)
}
