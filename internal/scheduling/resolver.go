package scheduling

import (
	"time"

	"github.com/BearBump/PickupBox/internal/models"
)

// DefaultHorizonDays bounds the forward search for a free day.
const DefaultHorizonDays = 60

// Rejection reasons returned by ValidateSelection.
const (
	ReasonInPast           = "date in the past"
	ReasonAlreadyScheduled = "date already scheduled"
)

type ResolverConfig struct {
	HorizonDays int // default: 60
}

func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{HorizonDays: DefaultHorizonDays}
}

type Resolver struct {
	cfg ResolverConfig
}

func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultResolverConfig().HorizonDays
	}
	return &Resolver{cfg: cfg}
}

func (r *Resolver) HorizonDays() int {
	return r.cfg.HorizonDays
}

// ExemptFromConflicts reports whether c may share a day with other pickups.
func ExemptFromConflicts(c *models.Container) bool {
	if c == nil {
		return false
	}
	return c.Punctual || ParseCadence(c.Cadence).Occasional()
}

func (r *Resolver) IsBlocked(day time.Time, idx *Index, c *models.Container) bool {
	if ExemptFromConflicts(c) {
		return false
	}
	return idx.Contains(day)
}

// SelectDefaultDate returns today when it is free, otherwise the first free
// day of today+1..today+horizon. When the horizon is exhausted it returns
// today and found=false.
func (r *Resolver) SelectDefaultDate(today time.Time, idx *Index, c *models.Container) (day time.Time, found bool) {
	today = Day(today)
	if !r.IsBlocked(today, idx, c) {
		return today, true
	}
	for i := 1; i <= r.cfg.HorizonDays; i++ {
		d := addDays(today, i)
		if !r.IsBlocked(d, idx, c) {
			return d, true
		}
	}
	return today, false
}

type Verdict struct {
	OK     bool
	Reason string
}

// ValidateSelection checks a day the user picked explicitly. Past days are
// rejected before the conflict check.
func (r *Resolver) ValidateSelection(day, today time.Time, idx *Index, c *models.Container) Verdict {
	if Day(day).Before(Day(today)) {
		return Verdict{Reason: ReasonInPast}
	}
	if r.IsBlocked(day, idx, c) {
		return Verdict{Reason: ReasonAlreadyScheduled}
	}
	return Verdict{OK: true}
}
