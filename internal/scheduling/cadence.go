package scheduling

import (
	"regexp"
	"strconv"
	"strings"
)

// OccasionalLabel is the cadence label of punctual containers and ad-hoc
// pickups.
const OccasionalLabel = "Ocasional"

type CadenceKind int

const (
	CadenceUnknown CadenceKind = iota
	CadenceDaily
	CadenceWeeklyN
	CadenceWeekly
	CadenceBiweekly
	CadenceMonthly
	CadenceOccasional
)

func (k CadenceKind) String() string {
	switch k {
	case CadenceDaily:
		return "DAILY"
	case CadenceWeeklyN:
		return "WEEKLY_N"
	case CadenceWeekly:
		return "WEEKLY"
	case CadenceBiweekly:
		return "BIWEEKLY"
	case CadenceMonthly:
		return "MONTHLY"
	case CadenceOccasional:
		return "OCCASIONAL"
	default:
		return "UNKNOWN"
	}
}

// Cadence is the recurrence a frequency label describes.
type Cadence struct {
	Kind CadenceKind
	// IntervalDays is the step between occurrences; 0 for monthly.
	IntervalDays int
	// PerWeek is K for "K por semana" labels.
	PerWeek int
}

// Occasional cadences never take part in conflict detection.
func (c Cadence) Occasional() bool {
	return c.Kind == CadenceOccasional
}

var leadingCount = regexp.MustCompile(`\d+`)

// ParseCadence interprets a frequency label. Matching is case-insensitive and
// works on substrings, so "Recogida 3 veces por semana" is weekly-N.
// Unrecognized labels are daily.
func ParseCadence(label string) Cadence {
	l := strings.ToLower(strings.TrimSpace(label))

	switch {
	case strings.Contains(l, "ocasional"), strings.Contains(l, "occasional"), strings.Contains(l, "puntual"):
		return Cadence{Kind: CadenceOccasional, IntervalDays: 1}
	case strings.Contains(l, "diari"), strings.Contains(l, "daily"):
		return Cadence{Kind: CadenceDaily, IntervalDays: 1}
	case strings.Contains(l, "quincenal"), strings.Contains(l, "biweekly"), strings.Contains(l, "fortnight"):
		return Cadence{Kind: CadenceBiweekly, IntervalDays: 15}
	case strings.Contains(l, "mensual"), strings.Contains(l, "monthly"):
		return Cadence{Kind: CadenceMonthly}
	case strings.Contains(l, "semana"), strings.Contains(l, "week"):
		if m := leadingCount.FindString(l); m != "" {
			k, _ := strconv.Atoi(m)
			if k <= 0 {
				k = 1
			}
			interval := 7 / k
			if interval < 1 {
				interval = 1
			}
			return Cadence{Kind: CadenceWeeklyN, IntervalDays: interval, PerWeek: k}
		}
		return Cadence{Kind: CadenceWeekly, IntervalDays: 7}
	default:
		return Cadence{Kind: CadenceUnknown, IntervalDays: 1}
	}
}
