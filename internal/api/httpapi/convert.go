package httpapi

import (
	"net/http"
	"time"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/prefs"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/BearBump/PickupBox/internal/services/owners"
	"github.com/BearBump/PickupBox/internal/services/scheduler"
)

func toOwnerJSON(o *models.Owner) ownerJSON {
	return ownerJSON{Key: o.Key, Name: o.Name, Phone: o.Phone, Email: o.Email}
}

func toPointJSON(p *models.CollectionPoint) pointJSON {
	return pointJSON{
		ID:         p.ID,
		OwnerKey:   p.OwnerKey,
		Address:    p.Address,
		Locality:   p.Locality,
		PostalCode: p.PostalCode,
		Province:   p.Province,
		SourceType: p.SourceType,
		TimeOfDay:  p.TimeOfDay,
		TimeLabel:  prefs.TimeOfDayLabel(p.TimeOfDay),
	}
}

func toContainerJSON(c *models.Container) containerJSON {
	return containerJSON{
		ID:             c.ID,
		PointID:        c.PointID,
		CapacityLiters: c.CapacityLiters,
		Size:           prefs.SizeLabel(c.CapacityLiters),
		WasteCategory:  c.WasteCategory,
		Category:       prefs.WasteCategoryLabel(c.WasteCategory),
		Cadence:        c.Cadence,
		Punctual:       c.Punctual,
	}
}

func toContainersJSON(cs []*models.Container) []containerJSON {
	out := make([]containerJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, toContainerJSON(c))
	}
	return out
}

func toPickupJSON(p *models.Pickup) pickupJSON {
	out := pickupJSON{
		ID:            p.ID,
		ContainerID:   p.ContainerID,
		RequestDate:   scheduling.DayKey(p.RequestDate),
		EstimatedDate: scheduling.DayKey(p.EstimatedDate),
		Incident:      p.Incident,
		Cadence:       p.Cadence,
	}
	if p.ActualDate != nil {
		d := scheduling.DayKey(*p.ActualDate)
		out.ActualDate = &d
	}
	return out
}

func toOwnerViewJSON(v *owners.OwnerView) ownerViewJSON {
	out := ownerViewJSON{Owner: toOwnerJSON(v.Owner), Points: make([]ownerPointJSON, 0, len(v.Points))}
	for _, p := range v.Points {
		out.Points = append(out.Points, ownerPointJSON{
			Point:      toPointJSON(p.Point),
			Containers: toContainersJSON(p.Containers),
		})
	}
	return out
}

func toRegistrationJSON(res *owners.RegistrationResult) registrationJSON {
	out := registrationJSON{
		Owner:        toOwnerJSON(res.Owner),
		OwnerCreated: res.OwnerCreated,
		Point:        toPointJSON(res.Point),
		PointCreated: res.PointCreated,
		Containers:   toContainersJSON(res.Containers),
		Schedules:    make([]outcomeJSON, 0, len(res.Schedules)),
	}
	for _, o := range res.Schedules {
		out.Schedules = append(out.Schedules, toOutcomeJSON(o))
	}
	return out
}

func toOutcomeJSON(o *scheduler.Outcome) outcomeJSON {
	out := outcomeJSON{
		Status:   string(o.Status),
		Accepted: make([]acceptedJSON, 0, len(o.Accepted)),
		Rejected: make([]rejectedJSON, 0, len(o.Rejected)),
		Reason:   problemOf(o.Reason),
	}
	if o.Point != nil {
		out.PointID = o.Point.ID
	}
	if o.Container != nil {
		out.ContainerID = o.Container.ID
	}
	for _, a := range o.Accepted {
		aj := acceptedJSON{Date: scheduling.DayKey(a.Day), Holiday: a.Holiday}
		if a.Pickup != nil {
			aj.PickupID = a.Pickup.ID
		}
		out.Accepted = append(out.Accepted, aj)
	}
	for _, r := range o.Rejected {
		out.Rejected = append(out.Rejected, rejectedJSON{
			Date:  scheduling.DayKey(r.Day),
			Code:  apperrors.Code(r.Err),
			Error: r.Err.Error(),
		})
	}
	for _, w := range o.Warnings {
		out.Warnings = append(out.Warnings, warningJSON{
			PointID:   w.PointID,
			Previous:  w.Previous,
			Requested: w.Requested,
			InEffect:  w.InEffect,
			Applied:   w.Applied,
			Message:   w.String(),
		})
	}
	return out
}

// outcomeStatus: 201 when every date was written, 207 when some were, the
// reason's status otherwise.
func outcomeStatus(o *scheduler.Outcome) int {
	switch o.Status {
	case scheduler.StatusCompleted:
		return http.StatusCreated
	case scheduler.StatusPartiallyCompleted:
		return http.StatusMultiStatus
	default:
		if o.Reason == nil {
			return http.StatusInternalServerError
		}
		return apperrors.HTTPStatus(o.Reason)
	}
}

func toJournalJSON(e *models.JournalEntry) journalEntryJSON {
	out := journalEntryJSON{
		ID:          e.ID,
		EventID:     e.EventID,
		EventType:   e.EventType,
		OwnerKey:    e.OwnerKey,
		PointID:     e.PointID,
		ContainerID: e.ContainerID,
		PickupID:    e.PickupID,
		Cadence:     e.Cadence,
		Detail:      e.Detail,
		OccurredAt:  e.OccurredAt.UTC().Format(time.RFC3339),
	}
	if e.Day != nil {
		d := scheduling.DayKey(*e.Day)
		out.Day = &d
	}
	return out
}

// parseOptionalDay parses a YYYY-MM-DD value; "" yields the zero time.
func parseOptionalDay(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	d, err := scheduling.ParseDay(v)
	if err != nil {
		return time.Time{}, apperrors.Validation(field, "expected YYYY-MM-DD")
	}
	return d, nil
}
