package scheduling

import (
	"sort"
	"time"

	"github.com/BearBump/PickupBox/internal/models"
)

// Index is the set of calendar days already taken by pending pickups of one
// container.
type Index struct {
	days map[string]time.Time
	// blockAll marks an index that could not be read; every day is taken.
	blockAll bool
}

// BuildIndex collects the estimated days of pending, non-occasional pickups.
func BuildIndex(pickups []*models.Pickup) *Index {
	idx := &Index{days: make(map[string]time.Time, len(pickups))}
	for _, p := range pickups {
		if p == nil || p.Completed() {
			continue
		}
		if ParseCadence(p.Cadence).Occasional() {
			continue
		}
		idx.Add(p.EstimatedDate)
	}
	return idx
}

// BlockAll returns an index that reports every day as occupied.
func BlockAll() *Index {
	return &Index{days: map[string]time.Time{}, blockAll: true}
}

func (i *Index) Add(t time.Time) {
	d := Day(t)
	i.days[DayKey(d)] = d
}

func (i *Index) Contains(t time.Time) bool {
	if i == nil {
		return false
	}
	if i.blockAll {
		return true
	}
	_, ok := i.days[DayKey(t)]
	return ok
}

// Unreadable reports whether the index was built with BlockAll.
func (i *Index) Unreadable() bool {
	return i != nil && i.blockAll
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.days)
}

// Days returns the occupied days in ascending order.
func (i *Index) Days() []time.Time {
	if i == nil {
		return nil
	}
	out := make([]time.Time, 0, len(i.days))
	for _, d := range i.days {
		out = append(out, d)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Before(out[b]) })
	return out
}
