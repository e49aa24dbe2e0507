// Package httpapi is the REST surface of the portal: session login, owner
// registration, pickup scheduling and the calendar views of a container.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/services/owners"
	"github.com/BearBump/PickupBox/internal/services/scheduler"
	"github.com/BearBump/PickupBox/internal/storage/pgjournal"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/rs/cors"
)

type Scheduler interface {
	Schedule(ctx context.Context, sess scheduler.Session, req scheduler.Request) (*scheduler.Outcome, error)
	Container(ctx context.Context, sess scheduler.Session, containerID string) (*scheduler.ContainerView, error)
	OccupiedDates(ctx context.Context, sess scheduler.Session, containerID string) ([]time.Time, error)
	Upcoming(ctx context.Context, sess scheduler.Session, containerID string) ([]*models.Pickup, error)
	DefaultDate(ctx context.Context, sess scheduler.Session, containerID string, from time.Time) (time.Time, error)
	Preview(start time.Time, label string, count int) []scheduler.PreviewDay
}

type Owners interface {
	Register(ctx context.Context, sess scheduler.Session, reg owners.Registration) (*owners.RegistrationResult, error)
	Get(ctx context.Context, sess scheduler.Session, key string) (*owners.OwnerView, error)
}

type Journal interface {
	List(ctx context.Context, sess scheduler.Session, f pgjournal.ListFilter) ([]*models.JournalEntry, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Options struct {
	// OperatorPasswordHash is a bcrypt hash; empty disables operator login.
	OperatorPasswordHash string
	AllowedOrigins       []string
	// ScheduleLimitPerMinute caps scheduling attempts per owner; 0 disables it.
	ScheduleLimitPerMinute int64
}

type Server struct {
	sched    Scheduler
	owners   Owners
	journal  Journal
	limiter  RateLimiter
	sessions sessions.Store
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

func New(sched Scheduler, ow Owners, journal Journal, store sessions.Store, opts Options) *Server {
	return &Server{
		sched:    sched,
		owners:   ow,
		journal:  journal,
		sessions: store,
		opts:     opts,
		validate: newValidator(),
		now:      time.Now,
	}
}

// WithRateLimiter enables the per-owner scheduling limit.
func (s *Server) WithRateLimiter(rl RateLimiter) *Server {
	s.limiter = rl
	return s
}

func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Router returns the API routes behind CORS. Callers may mount more routes
// (docs, swagger) on the returned router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/v1/calendar/preview", s.handlePreview)

	r.Post("/v1/session", s.handleLogin)
	r.Delete("/v1/session", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Post("/v1/owners", s.handleRegister)
		r.Get("/v1/owners/{key}", s.handleGetOwner)
		r.Post("/v1/schedule", s.handleSchedule)

		r.Route("/v1/containers/{id}", func(r chi.Router) {
			r.Get("/occupied", s.handleOccupied)
			r.Get("/default-date", s.handleDefaultDate)
			r.Get("/upcoming", s.handleUpcoming)
			r.Get("/pickups.ics", s.handleICS)
		})

		r.Get("/v1/journal", s.handleJournal)
	})
	return r
}
