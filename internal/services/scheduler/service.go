package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/pkg/errors"
)

// RecordStore is the part of the record store a scheduling attempt touches.
type RecordStore interface {
	ListPoints(ctx context.Context, ownerKey string) ([]*models.CollectionPoint, error)
	GetPoint(ctx context.Context, id string) (*models.CollectionPoint, error)
	UpdatePointTimeOfDay(ctx context.Context, id, timeOfDay string) error
	GetContainer(ctx context.Context, id string) (*models.Container, error)
	CreateContainer(ctx context.Context, in *models.ContainerInput) (*models.Container, error)
	ListPickups(ctx context.Context, containerID string, pendingOnly bool) ([]*models.Pickup, error)
	CreatePickup(ctx context.Context, in *models.PickupInput) (*models.Pickup, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type HolidayCalendar interface {
	Name(day time.Time) string
}

type Config struct {
	HorizonDays int           // default: 60
	Occurrences int           // default: 5
	CallTimeout time.Duration // default: 5s
	EventsTopic string        // empty disables publishing
}

type Service struct {
	store    RecordStore
	pub      Publisher
	holidays HolidayCalendar
	resolver *scheduling.Resolver
	cfg      Config
	now      func() time.Time
}

func New(store RecordStore, pub Publisher, cfg Config) *Service {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = scheduling.DefaultHorizonDays
	}
	if cfg.Occurrences <= 0 {
		cfg.Occurrences = scheduling.DefaultOccurrences
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	return &Service{
		store:    store,
		pub:      pub,
		resolver: scheduling.NewResolver(scheduling.ResolverConfig{HorizonDays: cfg.HorizonDays}),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Service) WithHolidays(h HolidayCalendar) *Service {
	s.holidays = h
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	return scheduling.Day(s.now())
}

// attempt carries the state of one scheduling attempt through its steps.
type attempt struct {
	req       Request
	timeOfDay string
	category  int
	capacity  int
	today     time.Time
	start     time.Time

	point     *models.CollectionPoint
	container *models.Container
	label     string
	idx       *scheduling.Index
	idxErr    error
	out       *Outcome
}

// Schedule runs one scheduling attempt. The returned error is set only when
// the request is rejected before any record-store call; every later failure
// is reported through the Outcome.
func (s *Service) Schedule(ctx context.Context, sess Session, req Request) (*Outcome, error) {
	a, err := s.validate(sess, req)
	if err != nil {
		return nil, err
	}

	if err := s.resolve(ctx, a); err != nil {
		a.out.Reason = err
		a.out.finish()
		s.logOutcome(a)
		return a.out, nil
	}

	if err := s.chooseContainer(ctx, a); err != nil {
		a.out.Reason = err
		a.out.finish()
		s.logOutcome(a)
		return a.out, nil
	}

	s.buildIndex(ctx, a)

	switch {
	case req.ExplicitDate != nil:
		s.scheduleExplicit(ctx, a)
	case req.Recurring:
		s.scheduleRecurring(ctx, a)
	default:
		s.scheduleDefault(ctx, a)
	}

	// The point preference is shared by every container at the point, so it
	// only changes once this attempt has written a pickup.
	if len(a.out.Accepted) > 0 {
		s.reconcile(ctx, a)
	}

	a.out.finish()
	s.logOutcome(a)
	return a.out, nil
}

func (s *Service) validate(sess Session, req Request) (*attempt, error) {
	if !models.ValidOwnerKey(req.OwnerKey) {
		return nil, apperrors.Validation("owner_key", "expected 8 digits and an uppercase letter")
	}
	if !sess.CanActFor(req.OwnerKey) {
		return nil, errors.Wrap(apperrors.ErrForbidden, "session cannot act for owner")
	}

	a := &attempt{req: req, today: s.today(), out: &Outcome{}}

	a.timeOfDay = prefsTimeOfDay(req.TimeOfDay)
	if a.timeOfDay == "" {
		return nil, apperrors.Validation("time_of_day", "unknown or missing time of day")
	}

	switch sel := req.Selection.(type) {
	case ExistingContainer:
		if sel.ID == "" {
			return nil, apperrors.Validation("container_id", "required")
		}
	case NewContainer:
		a.category = prefsWasteCategory(sel.Category)
		if a.category == 0 {
			return nil, apperrors.Validation("category", "unknown waste category")
		}
		a.capacity = prefsCapacity(sel.Size)
		if a.capacity == 0 {
			return nil, apperrors.Validation("size", "unknown container size")
		}
		if req.Recurring {
			return nil, apperrors.Validation("recurring", "recurring pickups need a standing container")
		}
	case nil:
		return nil, apperrors.Validation("container", "required")
	default:
		return nil, apperrors.Validation("container", "unsupported selection")
	}

	a.start = a.today
	if !req.StartDate.IsZero() {
		a.start = scheduling.Day(req.StartDate)
		if a.start.Before(a.today) {
			return nil, apperrors.Validation("start_date", scheduling.ReasonInPast)
		}
	}
	if req.ExplicitDate != nil && scheduling.Day(*req.ExplicitDate).Before(a.today) {
		return nil, apperrors.Validation("date", scheduling.ReasonInPast)
	}
	return a, nil
}

// resolve finds the collection point and, for an existing selection, the
// container. The container's point is authoritative.
func (s *Service) resolve(ctx context.Context, a *attempt) error {
	if sel, ok := a.req.Selection.(ExistingContainer); ok {
		var c *models.Container
		err := s.read(ctx, "get container", func(ctx context.Context) error {
			var err error
			c, err = s.store.GetContainer(ctx, sel.ID)
			return err
		})
		if err != nil {
			return err
		}
		if a.req.PointID != "" && a.req.PointID != c.PointID {
			return apperrors.Validation("point_id", "container belongs to another collection point")
		}
		p, err := s.getPoint(ctx, c.PointID)
		if err != nil {
			return err
		}
		if p.OwnerKey != a.req.OwnerKey {
			return apperrors.Validation("container_id", "container does not belong to owner")
		}
		if a.req.Recurring && strings.TrimSpace(c.Cadence) == "" {
			return apperrors.Validation("cadence", "container has no recurring cadence")
		}
		a.point, a.container = p, c
		a.out.Point, a.out.Container = p, c
		return nil
	}

	var points []*models.CollectionPoint
	err := s.read(ctx, "list points", func(ctx context.Context) error {
		var err error
		points, err = s.store.ListPoints(ctx, a.req.OwnerKey)
		return err
	})
	if err != nil {
		return err
	}
	switch {
	case a.req.PointID != "":
		for _, p := range points {
			if p.ID == a.req.PointID {
				a.point = p
			}
		}
		if a.point == nil {
			return errors.Wrap(apperrors.ErrNotFound, "collection point of owner")
		}
	case len(points) == 1:
		a.point = points[0]
	case len(points) == 0:
		return errors.Wrap(apperrors.ErrNotFound, "owner has no collection point")
	default:
		return apperrors.Validation("point_id", "owner has several collection points")
	}
	a.out.Point = a.point
	return nil
}

func (s *Service) getPoint(ctx context.Context, id string) (*models.CollectionPoint, error) {
	var p *models.CollectionPoint
	err := s.read(ctx, "get point", func(ctx context.Context) error {
		var err error
		p, err = s.store.GetPoint(ctx, id)
		return err
	})
	return p, err
}

// reconcile applies the staged time-of-day to the point when it differs,
// then reads the point back: concurrent attempts on the same point are
// last-writer-wins.
func (s *Service) reconcile(ctx context.Context, a *attempt) {
	prev := a.point.TimeOfDay
	if prev == a.timeOfDay {
		return
	}
	w := apperrors.ReconciliationWarning{
		PointID:   a.point.ID,
		Previous:  prev,
		Requested: a.timeOfDay,
	}

	err := s.write(ctx, "update point", func(ctx context.Context) error {
		return s.store.UpdatePointTimeOfDay(ctx, a.point.ID, a.timeOfDay)
	})
	if err != nil {
		w.InEffect = prev
		w.Err = err
		a.out.Warnings = append(a.out.Warnings, w)
		slog.Warn("point time-of-day update failed", "point_id", a.point.ID, "requested", a.timeOfDay, "err", err)
		return
	}
	w.Applied = true

	fresh, err := s.getPoint(ctx, a.point.ID)
	if err != nil {
		w.InEffect = a.timeOfDay
		w.Err = err
		slog.Warn("point re-read failed", "point_id", a.point.ID, "err", err)
	} else {
		w.InEffect = fresh.TimeOfDay
	}
	p := *a.point
	p.TimeOfDay = w.InEffect
	a.point = &p
	a.out.Point = a.point
	a.out.Warnings = append(a.out.Warnings, w)

	s.publishPointChanged(ctx, a, w)
}

// chooseContainer keeps an existing container as is or creates a punctual
// one with occasional cadence.
func (s *Service) chooseContainer(ctx context.Context, a *attempt) error {
	if a.container != nil {
		a.label = a.container.Cadence
		return nil
	}

	in := &models.ContainerInput{
		PointID:        a.point.ID,
		CapacityLiters: a.capacity,
		WasteCategory:  a.category,
		Cadence:        scheduling.OccasionalLabel,
		Punctual:       true,
	}
	var c *models.Container
	err := s.write(ctx, "create container", func(ctx context.Context) error {
		var err error
		c, err = s.store.CreateContainer(ctx, in)
		return err
	})
	if err != nil {
		return err
	}
	a.container = c
	a.out.Container = c
	a.label = scheduling.OccasionalLabel
	return nil
}

// buildIndex reads the pending pickups of a cadence-bearing container. An
// unreadable listing blocks every day.
func (s *Service) buildIndex(ctx context.Context, a *attempt) {
	if scheduling.ExemptFromConflicts(a.container) {
		a.idx = scheduling.BuildIndex(nil)
		return
	}
	var pickups []*models.Pickup
	err := s.read(ctx, "list pickups", func(ctx context.Context) error {
		var err error
		pickups, err = s.store.ListPickups(ctx, a.container.ID, true)
		return err
	})
	if err != nil {
		slog.Warn("pending pickups unreadable, blocking all dates", "container_id", a.container.ID, "err", err)
		a.idx = scheduling.BlockAll()
		a.idxErr = err
		return
	}
	a.idx = scheduling.BuildIndex(pickups)
}

func (s *Service) scheduleExplicit(ctx context.Context, a *attempt) {
	day := scheduling.Day(*a.req.ExplicitDate)
	if a.idx.Unreadable() {
		s.reject(a, day, a.idxErr)
		return
	}
	v := s.resolver.ValidateSelection(day, a.today, a.idx, a.container)
	if !v.OK {
		s.reject(a, day, apperrors.Validation("date", v.Reason))
		return
	}
	s.submit(ctx, a, day)
}

func (s *Service) scheduleDefault(ctx context.Context, a *attempt) {
	if a.idx.Unreadable() {
		s.reject(a, a.start, a.idxErr)
		return
	}
	day, found := s.resolver.SelectDefaultDate(a.start, a.idx, a.container)
	if !found {
		a.out.Reason = &apperrors.ConflictError{Day: day, HorizonExhausted: true}
		return
	}
	s.submit(ctx, a, day)
}

// scheduleRecurring handles each generated day on its own: a conflict or a
// failed write on one day does not stop the others.
func (s *Service) scheduleRecurring(ctx context.Context, a *attempt) {
	for _, day := range scheduling.Generate(a.start, a.label, s.cfg.Occurrences) {
		switch {
		case a.idx.Unreadable():
			s.reject(a, day, a.idxErr)
		case day.Before(a.today):
			s.reject(a, day, apperrors.Validation("date", scheduling.ReasonInPast))
		case s.resolver.IsBlocked(day, a.idx, a.container):
			s.reject(a, day, &apperrors.ConflictError{Day: day})
		default:
			s.submit(ctx, a, day)
		}
	}
}

func (s *Service) reject(a *attempt, day time.Time, err error) {
	a.out.Rejected = append(a.out.Rejected, RejectedDate{Day: day, Err: err})
}

// submit writes one pickup. Writes are not retried; a failure rejects the day.
func (s *Service) submit(ctx context.Context, a *attempt, day time.Time) {
	if err := ctx.Err(); err != nil {
		s.reject(a, day, apperrors.UpstreamIO("create pickup", err))
		return
	}
	in := &models.PickupInput{
		ContainerID:   a.container.ID,
		RequestDate:   a.today,
		EstimatedDate: day,
		Cadence:       a.label,
	}
	var p *models.Pickup
	err := s.write(ctx, "create pickup", func(ctx context.Context) error {
		var err error
		p, err = s.store.CreatePickup(ctx, in)
		return err
	})
	if err != nil {
		slog.Warn("create pickup failed", "container_id", a.container.ID, "day", scheduling.DayKey(day), "err", err)
		s.reject(a, day, err)
		return
	}
	a.idx.Add(day)

	acc := AcceptedDate{Day: day, Pickup: p}
	if s.holidays != nil {
		acc.Holiday = s.holidays.Name(day)
	}
	a.out.Accepted = append(a.out.Accepted, acc)
	s.publishScheduled(ctx, a, acc)
}

// call runs fn under the per-call timeout and classifies its failure.
func (s *Service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return apperrors.UpstreamIO(op, fn(cctx))
}

// read retries an idempotent call once.
func (s *Service) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := s.call(ctx, op, fn)
	if err == nil || !apperrors.IsRetryable(err) || ctx.Err() != nil {
		return err
	}
	slog.Debug("retrying record store read", "op", op, "err", err)
	return s.call(ctx, op, fn)
}

func (s *Service) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return s.call(ctx, op, fn)
}

func (s *Service) logOutcome(a *attempt) {
	args := []any{
		"owner_key", a.req.OwnerKey,
		"status", a.out.Status,
		"accepted", len(a.out.Accepted),
		"rejected", len(a.out.Rejected),
		"warnings", len(a.out.Warnings),
	}
	if a.container != nil {
		args = append(args, "container_id", a.container.ID)
	}
	if a.out.Reason != nil {
		args = append(args, "reason", a.out.Reason)
	}
	slog.Info("schedule attempt finished", args...)
}
