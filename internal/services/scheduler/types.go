package scheduler

import (
	"time"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/models"
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleOperator Role = "operator"
)

// Session identifies who is calling. Owners act only on their own records;
// operators act on behalf of any owner.
type Session struct {
	Role     Role
	OwnerKey string
}

func OwnerSession(key string) Session {
	return Session{Role: RoleOwner, OwnerKey: key}
}

func OperatorSession() Session {
	return Session{Role: RoleOperator}
}

func (s Session) CanActFor(ownerKey string) bool {
	switch s.Role {
	case RoleOperator:
		return true
	case RoleOwner:
		return s.OwnerKey != "" && s.OwnerKey == ownerKey
	default:
		return false
	}
}

// Selection is either ExistingContainer or NewContainer.
type Selection interface {
	isSelection()
}

type ExistingContainer struct {
	ID string
}

// NewContainer asks for a punctual container carrying one ad-hoc pickup.
// Category and Size are portal labels (or canonical values). Its cadence is
// always occasional.
type NewContainer struct {
	Category string
	Size     string
}

func (ExistingContainer) isSelection() {}
func (NewContainer) isSelection()      {}

type Request struct {
	OwnerKey  string
	Selection Selection
	// TimeOfDay is a portal label or a backend code.
	TimeOfDay string
	// StartDate is the first candidate day; zero means today.
	StartDate time.Time
	// ExplicitDate is a day picked by the user; it is validated, never moved.
	ExplicitDate *time.Time
	// Recurring generates the cadence occurrences from StartDate.
	Recurring bool
	// PointID picks the collection point for a new container when the owner
	// has several.
	PointID string
}

type Status string

const (
	StatusCompleted          Status = "COMPLETED"
	StatusPartiallyCompleted Status = "PARTIALLY_COMPLETED"
	StatusFailed             Status = "FAILED"
)

type AcceptedDate struct {
	Day    time.Time
	Pickup *models.Pickup
	// Holiday names the public holiday falling on Day, if any.
	Holiday string
}

type RejectedDate struct {
	Day time.Time
	Err error
}

type Outcome struct {
	Status    Status
	Point     *models.CollectionPoint
	Container *models.Container
	Accepted  []AcceptedDate
	Rejected  []RejectedDate
	Warnings  []apperrors.ReconciliationWarning
	// Reason is set when Status is StatusFailed.
	Reason error
}

func (o *Outcome) AcceptedDays() []time.Time {
	out := make([]time.Time, 0, len(o.Accepted))
	for _, a := range o.Accepted {
		out = append(out, a.Day)
	}
	return out
}

func (o *Outcome) RejectedDays() []time.Time {
	out := make([]time.Time, 0, len(o.Rejected))
	for _, r := range o.Rejected {
		out = append(out, r.Day)
	}
	return out
}

func (o *Outcome) finish() {
	switch {
	case o.Reason != nil && len(o.Accepted) == 0:
		o.Status = StatusFailed
	case len(o.Accepted) == 0:
		o.Status = StatusFailed
		if len(o.Rejected) > 0 {
			o.Reason = o.Rejected[0].Err
		}
	case len(o.Rejected) > 0:
		o.Status = StatusPartiallyCompleted
	default:
		o.Status = StatusCompleted
	}
}
