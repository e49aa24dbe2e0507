package owners

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/cache"
	"github.com/BearBump/PickupBox/internal/cache/rediscache"
	"github.com/BearBump/PickupBox/internal/integrations/recordstore"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/prefs"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/BearBump/PickupBox/internal/services/scheduler"
	"github.com/pkg/errors"
)

type Repository interface {
	GetOwner(ctx context.Context, key string) (*models.Owner, error)
	CreateOwner(ctx context.Context, in *models.OwnerInput) (*models.Owner, error)
	ListPoints(ctx context.Context, ownerKey string) ([]*models.CollectionPoint, error)
	CreatePoint(ctx context.Context, in *models.CollectionPointInput) (*models.CollectionPoint, error)
	ListContainers(ctx context.Context, pointID string) ([]*models.Container, error)
	CreateContainer(ctx context.Context, in *models.ContainerInput) (*models.Container, error)
}

type Scheduler interface {
	Schedule(ctx context.Context, sess scheduler.Session, req scheduler.Request) (*scheduler.Outcome, error)
}

// PointSpec uses portal values; TimeOfDay is normalized to its backend code.
type PointSpec struct {
	Address    string
	Locality   string
	PostalCode string
	Province   string
	SourceType string
	TimeOfDay  string
}

// ContainerSpec describes a standing container. Category and Size accept
// portal labels or canonical values.
type ContainerSpec struct {
	Category string
	Size     string
	Cadence  string
}

type Registration struct {
	Owner      models.OwnerInput
	Point      PointSpec
	Containers []ContainerSpec
	// StartDate of the first recurring pickups; zero means today.
	StartDate time.Time
}

type RegistrationResult struct {
	Owner        *models.Owner
	OwnerCreated bool
	Point        *models.CollectionPoint
	PointCreated bool
	Containers   []*models.Container
	// Schedules holds one outcome per newly created container with a
	// recurring cadence.
	Schedules []*scheduler.Outcome
}

type PointView struct {
	Point      *models.CollectionPoint
	Containers []*models.Container
}

type OwnerView struct {
	Owner  *models.Owner
	Points []PointView
}

type Service struct {
	repo        Repository
	sched       Scheduler
	cache       cache.BytesCache
	ownerTTL    time.Duration
	callTimeout time.Duration
	now         func() time.Time
}

func New(repo Repository, sched Scheduler, c cache.BytesCache, ownerTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		sched:       sched,
		cache:       c,
		ownerTTL:    ownerTTL,
		callTimeout: 5 * time.Second,
		now:         time.Now,
	}
}

// WithCallTimeout bounds every record-store call; zero keeps the default.
func (s *Service) WithCallTimeout(d time.Duration) *Service {
	if d > 0 {
		s.callTimeout = d
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register upserts the owner, reuses the collection point with the same
// address (or creates it) and adds the standing containers the point does not
// have yet. The recurring pickups of each newly created container that
// carries a cadence are then scheduled.
func (s *Service) Register(ctx context.Context, sess scheduler.Session, reg Registration) (*RegistrationResult, error) {
	pointIn, containersIn, err := s.validate(sess, reg)
	if err != nil {
		return nil, err
	}

	res := &RegistrationResult{}
	res.Owner, res.OwnerCreated, err = s.upsertOwner(ctx, &reg.Owner)
	if err != nil {
		return nil, err
	}

	res.Point, res.PointCreated, err = s.upsertPoint(ctx, pointIn)
	if err != nil {
		return nil, err
	}

	var existing []*models.Container
	if !res.PointCreated {
		err = s.call(ctx, func(ctx context.Context) error {
			var err error
			existing, err = s.repo.ListContainers(ctx, res.Point.ID)
			return err
		})
		if err != nil {
			return nil, apperrors.UpstreamIO("list containers", err)
		}
	}

	var created []*models.Container
	for _, in := range containersIn {
		if c := sameContainer(existing, in); c != nil {
			res.Containers = append(res.Containers, c)
			continue
		}
		in.PointID = res.Point.ID
		var c *models.Container
		err := s.call(ctx, func(ctx context.Context) error {
			var err error
			c, err = s.repo.CreateContainer(ctx, in)
			return err
		})
		if err != nil {
			return res, apperrors.UpstreamIO("create container", err)
		}
		res.Containers = append(res.Containers, c)
		created = append(created, c)
	}

	for _, c := range created {
		cad := scheduling.ParseCadence(c.Cadence)
		if c.Cadence == "" || cad.Occasional() {
			continue
		}
		out, err := s.sched.Schedule(ctx, sess, scheduler.Request{
			OwnerKey:  res.Owner.Key,
			Selection: scheduler.ExistingContainer{ID: c.ID},
			TimeOfDay: pointIn.TimeOfDay,
			StartDate: reg.StartDate,
			Recurring: true,
			PointID:   res.Point.ID,
		})
		if err != nil {
			return res, err
		}
		res.Schedules = append(res.Schedules, out)
	}

	slog.Info("owner registered",
		"owner_key", res.Owner.Key,
		"owner_created", res.OwnerCreated,
		"point_id", res.Point.ID,
		"point_created", res.PointCreated,
		"containers", len(res.Containers),
		"schedules", len(res.Schedules),
	)
	return res, nil
}

// upsertPoint returns the owner's point at the same address and postal code
// when there is one.
func (s *Service) upsertPoint(ctx context.Context, in *models.CollectionPointInput) (*models.CollectionPoint, bool, error) {
	var points []*models.CollectionPoint
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		points, err = s.repo.ListPoints(ctx, in.OwnerKey)
		return err
	})
	if err != nil {
		return nil, false, apperrors.UpstreamIO("list points", err)
	}
	for _, p := range points {
		if sameText(p.Address, in.Address) && sameText(p.PostalCode, in.PostalCode) {
			return p, false, nil
		}
	}

	var p *models.CollectionPoint
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.CreatePoint(ctx, in)
		return err
	})
	if err != nil {
		return nil, false, apperrors.UpstreamIO("create point", err)
	}
	return p, true, nil
}

func sameContainer(existing []*models.Container, in *models.ContainerInput) *models.Container {
	for _, c := range existing {
		if !c.Punctual && c.CapacityLiters == in.CapacityLiters &&
			c.WasteCategory == in.WasteCategory && sameText(c.Cadence, in.Cadence) {
			return c
		}
	}
	return nil
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// call runs fn under the per-call timeout.
func (s *Service) call(ctx context.Context, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()
	return fn(cctx)
}

func (s *Service) validate(sess scheduler.Session, reg Registration) (*models.CollectionPointInput, []*models.ContainerInput, error) {
	if !models.ValidOwnerKey(reg.Owner.Key) {
		return nil, nil, apperrors.Validation("owner.key", "expected 8 digits and an uppercase letter")
	}
	if !sess.CanActFor(reg.Owner.Key) {
		return nil, nil, errors.Wrap(apperrors.ErrForbidden, "session cannot register owner")
	}
	if reg.Owner.Name == "" {
		return nil, nil, apperrors.Validation("owner.name", "required")
	}
	if reg.Point.Address == "" {
		return nil, nil, apperrors.Validation("point.address", "required")
	}
	tod := prefs.TimeOfDayCode(reg.Point.TimeOfDay)
	if tod == "" {
		return nil, nil, apperrors.Validation("point.time_of_day", "unknown or missing time of day")
	}
	if !reg.StartDate.IsZero() && scheduling.Day(reg.StartDate).Before(scheduling.Day(s.now())) {
		return nil, nil, apperrors.Validation("start_date", scheduling.ReasonInPast)
	}

	pointIn := &models.CollectionPointInput{
		OwnerKey:   reg.Owner.Key,
		Address:    reg.Point.Address,
		Locality:   reg.Point.Locality,
		PostalCode: reg.Point.PostalCode,
		Province:   reg.Point.Province,
		SourceType: reg.Point.SourceType,
		TimeOfDay:  tod,
	}

	containers := make([]*models.ContainerInput, 0, len(reg.Containers))
	for _, cs := range reg.Containers {
		cat := prefs.WasteCategoryID(cs.Category)
		if cat == 0 {
			return nil, nil, apperrors.Validation("containers.category", "unknown waste category")
		}
		liters := prefs.SizeCapacity(cs.Size)
		if liters == 0 {
			return nil, nil, apperrors.Validation("containers.size", "unknown container size")
		}
		containers = append(containers, &models.ContainerInput{
			CapacityLiters: liters,
			WasteCategory:  cat,
			Cadence:        cs.Cadence,
		})
	}
	return pointIn, containers, nil
}

// upsertOwner returns the stored owner when the key is already registered.
func (s *Service) upsertOwner(ctx context.Context, in *models.OwnerInput) (*models.Owner, bool, error) {
	var o *models.Owner
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetOwner(ctx, in.Key)
		return err
	})
	if err == nil {
		return o, false, nil
	}
	if !recordstore.IsNotFound(err) {
		return nil, false, apperrors.UpstreamIO("get owner", err)
	}
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.CreateOwner(ctx, in)
		return err
	})
	if err != nil {
		return nil, false, apperrors.UpstreamIO("create owner", err)
	}
	s.cacheOwner(ctx, o)
	return o, true, nil
}

// Get returns the owner with its points and containers. The owner record is
// cached; points and containers are always read.
func (s *Service) Get(ctx context.Context, sess scheduler.Session, key string) (*OwnerView, error) {
	if !models.ValidOwnerKey(key) {
		return nil, apperrors.Validation("owner_key", "expected 8 digits and an uppercase letter")
	}
	if !sess.CanActFor(key) {
		return nil, errors.Wrap(apperrors.ErrForbidden, "session cannot read owner")
	}

	o, err := s.owner(ctx, key)
	if err != nil {
		return nil, err
	}

	var points []*models.CollectionPoint
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		points, err = s.repo.ListPoints(ctx, key)
		return err
	})
	if err != nil {
		return nil, apperrors.UpstreamIO("list points", err)
	}
	view := &OwnerView{Owner: o, Points: make([]PointView, 0, len(points))}
	for _, p := range points {
		var cs []*models.Container
		err := s.call(ctx, func(ctx context.Context) error {
			var err error
			cs, err = s.repo.ListContainers(ctx, p.ID)
			return err
		})
		if err != nil {
			return nil, apperrors.UpstreamIO("list containers", err)
		}
		view.Points = append(view.Points, PointView{Point: p, Containers: cs})
	}
	return view, nil
}

func (s *Service) owner(ctx context.Context, key string) (*models.Owner, error) {
	if s.cacheEnabled() {
		b, ok, err := s.cache.Get(ctx, rediscache.OwnerKey(key))
		if err != nil {
			slog.Warn("owner cache get failed", "owner_key", key, "err", err)
		}
		if ok {
			var o models.Owner
			if json.Unmarshal(b, &o) == nil {
				return &o, nil
			}
		}
	}

	var o *models.Owner
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetOwner(ctx, key)
		return err
	})
	if err != nil {
		return nil, apperrors.UpstreamIO("get owner", err)
	}
	s.cacheOwner(ctx, o)
	return o, nil
}

func (s *Service) cacheOwner(ctx context.Context, o *models.Owner) {
	if !s.cacheEnabled() {
		return
	}
	b, _ := json.Marshal(o)
	if err := s.cache.Set(ctx, rediscache.OwnerKey(o.Key), b, s.ownerTTL); err != nil {
		slog.Warn("owner cache set failed", "owner_key", o.Key, "err", err)
	}
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.ownerTTL > 0
}
