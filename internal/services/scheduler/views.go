package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/pkg/errors"
)

type PreviewDay struct {
	Day     time.Time
	Holiday string
}

// ContainerView is a container with its point, as seen by one session.
type ContainerView struct {
	Container *models.Container
	Point     *models.CollectionPoint
}

func (s *Service) Container(ctx context.Context, sess Session, containerID string) (*ContainerView, error) {
	if containerID == "" {
		return nil, apperrors.Validation("container_id", "required")
	}
	var c *models.Container
	err := s.read(ctx, "get container", func(ctx context.Context) error {
		var err error
		c, err = s.store.GetContainer(ctx, containerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	p, err := s.getPoint(ctx, c.PointID)
	if err != nil {
		return nil, err
	}
	if !sess.CanActFor(p.OwnerKey) {
		return nil, errors.Wrap(apperrors.ErrForbidden, "container of another owner")
	}
	return &ContainerView{Container: c, Point: p}, nil
}

func (s *Service) pending(ctx context.Context, containerID string) ([]*models.Pickup, error) {
	var pickups []*models.Pickup
	err := s.read(ctx, "list pickups", func(ctx context.Context) error {
		var err error
		pickups, err = s.store.ListPickups(ctx, containerID, true)
		return err
	})
	return pickups, err
}

// OccupiedDates lists the days a new pickup of the container cannot take.
// Containers exempt from conflicts have none.
func (s *Service) OccupiedDates(ctx context.Context, sess Session, containerID string) ([]time.Time, error) {
	v, err := s.Container(ctx, sess, containerID)
	if err != nil {
		return nil, err
	}
	if scheduling.ExemptFromConflicts(v.Container) {
		return []time.Time{}, nil
	}
	pickups, err := s.pending(ctx, containerID)
	if err != nil {
		return nil, err
	}
	return scheduling.BuildIndex(pickups).Days(), nil
}

// Upcoming returns the pending pickups of the container by estimated date.
func (s *Service) Upcoming(ctx context.Context, sess Session, containerID string) ([]*models.Pickup, error) {
	if _, err := s.Container(ctx, sess, containerID); err != nil {
		return nil, err
	}
	pickups, err := s.pending(ctx, containerID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Pickup, 0, len(pickups))
	for _, p := range pickups {
		if !p.Completed() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EstimatedDate.Before(out[j].EstimatedDate)
	})
	return out, nil
}

// DefaultDate previews the day Schedule would pick without writing.
func (s *Service) DefaultDate(ctx context.Context, sess Session, containerID string, from time.Time) (time.Time, error) {
	today := s.today()
	if from.IsZero() {
		from = today
	}
	from = scheduling.Day(from)
	if from.Before(today) {
		return time.Time{}, apperrors.Validation("from", scheduling.ReasonInPast)
	}

	v, err := s.Container(ctx, sess, containerID)
	if err != nil {
		return time.Time{}, err
	}
	idx := scheduling.BuildIndex(nil)
	if !scheduling.ExemptFromConflicts(v.Container) {
		pickups, err := s.pending(ctx, containerID)
		if err != nil {
			return time.Time{}, err
		}
		idx = scheduling.BuildIndex(pickups)
	}
	day, found := s.resolver.SelectDefaultDate(from, idx, v.Container)
	if !found {
		return time.Time{}, &apperrors.ConflictError{Day: day, HorizonExhausted: true}
	}
	return day, nil
}

// Preview generates the occurrence days of a cadence. count <= 0 uses the
// configured number of occurrences.
func (s *Service) Preview(start time.Time, label string, count int) []PreviewDay {
	if start.IsZero() {
		start = s.today()
	}
	if count <= 0 {
		count = s.cfg.Occurrences
	}
	days := scheduling.Generate(start, label, count)
	out := make([]PreviewDay, 0, len(days))
	for _, d := range days {
		pd := PreviewDay{Day: d}
		if s.holidays != nil {
			pd.Holiday = s.holidays.Name(d)
		}
		out = append(out, pd)
	}
	return out
}
