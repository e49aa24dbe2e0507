package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/cache/rediscache"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/BearBump/PickupBox/internal/services/owners"
	"github.com/BearBump/PickupBox/internal/services/scheduler"
	"github.com/BearBump/PickupBox/internal/storage/pgjournal"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const maxPreviewCount = 60

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	start, err := parseOptionalDay("start_date", req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}

	reg := owners.Registration{
		Owner: models.OwnerInput{
			Key:   req.Owner.Key,
			Name:  req.Owner.Name,
			Phone: req.Owner.Phone,
			Email: req.Owner.Email,
		},
		Point: owners.PointSpec{
			Address:    req.Point.Address,
			Locality:   req.Point.Locality,
			PostalCode: req.Point.PostalCode,
			Province:   req.Point.Province,
			SourceType: req.Point.SourceType,
			TimeOfDay:  req.Point.TimeOfDay,
		},
		StartDate: start,
	}
	for _, c := range req.Containers {
		reg.Containers = append(reg.Containers, owners.ContainerSpec{Category: c.Category, Size: c.Size, Cadence: c.Cadence})
	}

	res, err := s.owners.Register(r.Context(), sessionFrom(r.Context()), reg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegistrationJSON(res))
}

func (s *Server) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	v, err := s.owners.Get(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOwnerViewJSON(v))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req scheduleRequest
	if !s.decode(w, r, &req) {
		return
	}
	if (req.ContainerID == "") == (req.NewContainer == nil) {
		writeError(w, apperrors.Validation("container_id", "exactly one of container_id or new_container is required"))
		return
	}
	start, err := parseOptionalDay("start_date", req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}
	explicit, err := parseOptionalDay("date", req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	if !sess.CanActFor(req.OwnerKey) {
		writeError(w, errors.Wrap(apperrors.ErrForbidden, "session cannot schedule for owner"))
		return
	}
	if !s.allowSchedule(w, r, req.OwnerKey) {
		return
	}

	sr := scheduler.Request{
		OwnerKey:  req.OwnerKey,
		TimeOfDay: req.TimeOfDay,
		StartDate: start,
		Recurring: req.Recurring,
		PointID:   req.PointID,
	}
	if !explicit.IsZero() {
		sr.ExplicitDate = &explicit
	}
	if req.NewContainer != nil {
		sr.Selection = scheduler.NewContainer{
			Category: req.NewContainer.Category,
			Size:     req.NewContainer.Size,
		}
	} else {
		sr.Selection = scheduler.ExistingContainer{ID: req.ContainerID}
	}

	out, err := s.sched.Schedule(r.Context(), sess, sr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, outcomeStatus(out), toOutcomeJSON(out))
}

// allowSchedule applies the per-owner limit. A limiter failure lets the
// request through.
func (s *Server) allowSchedule(w http.ResponseWriter, r *http.Request, ownerKey string) bool {
	if s.limiter == nil || s.opts.ScheduleLimitPerMinute <= 0 {
		return true
	}
	ok, n, err := s.limiter.Allow(r.Context(), rediscache.ScheduleLimitKey(ownerKey), s.opts.ScheduleLimitPerMinute, time.Minute)
	if err != nil {
		slog.Warn("schedule rate limit unavailable", "owner_key", ownerKey, "err", err)
		return true
	}
	if !ok {
		slog.Info("schedule rate limited", "owner_key", ownerKey, "count", n)
		w.Header().Set("Retry-After", "60")
		writeProblem(w, http.StatusTooManyRequests, "rate_limited", "too many scheduling attempts, retry later")
		return false
	}
	return true
}

func (s *Server) handleOccupied(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	days, err := s.sched.OccupiedDates(r.Context(), sessionFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, scheduling.DayKey(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"container_id": id, "dates": keys})
}

func (s *Server) handleDefaultDate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	from, err := parseOptionalDay("from", r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, err)
		return
	}
	day, err := s.sched.DefaultDate(r.Context(), sessionFrom(r.Context()), id, from)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"container_id": id, "date": scheduling.DayKey(day)})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	pickups, err := s.sched.Upcoming(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]pickupJSON, 0, len(pickups))
	for _, p := range pickups {
		out = append(out, toPickupJSON(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"pickups": out})
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)
	id := chi.URLParam(r, "id")
	v, err := s.sched.Container(ctx, sess, id)
	if err != nil {
		writeError(w, err)
		return
	}
	pickups, err := s.sched.Upcoming(ctx, sess, id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=recogidas_"+id+".ics")
	writeICS(w, v, pickups, s.now())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := parseOptionalDay("start", q.Get("start"))
	if err != nil {
		writeError(w, err)
		return
	}
	count := 0
	if c := q.Get("count"); c != "" {
		count, err = strconv.Atoi(c)
		if err != nil || count < 1 || count > maxPreviewCount {
			writeError(w, apperrors.Validation("count", "expected 1.."+strconv.Itoa(maxPreviewCount)))
			return
		}
	}
	days := s.sched.Preview(start, q.Get("cadence"), count)
	out := make([]previewJSON, 0, len(days))
	for _, d := range days {
		out = append(out, previewJSON{Date: scheduling.DayKey(d.Day), Holiday: d.Holiday})
	}
	writeJSON(w, http.StatusOK, map[string]any{"cadence": q.Get("cadence"), "dates": out})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeProblem(w, http.StatusServiceUnavailable, "unavailable", "journal not configured")
		return
	}
	q := r.URL.Query()
	f := pgjournal.ListFilter{
		OwnerKey:    q.Get("owner_key"),
		ContainerID: q.Get("container_id"),
	}
	var err error
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			writeError(w, apperrors.Validation("limit", "expected a number"))
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil {
			writeError(w, apperrors.Validation("offset", "expected a number"))
			return
		}
	}

	entries, err := s.journal.List(r.Context(), sessionFrom(r.Context()), f)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]journalEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, toJournalJSON(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}
