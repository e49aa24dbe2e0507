package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/broker/messages"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/BearBump/PickupBox/internal/services/scheduler"
	"github.com/BearBump/PickupBox/internal/storage/pgjournal"
	"github.com/pkg/errors"
)

type Repository interface {
	InsertEntries(ctx context.Context, entries []*models.JournalEntry) (int, error)
	ListEntries(ctx context.Context, f pgjournal.ListFilter) ([]*models.JournalEntry, error)
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Service struct {
	repo      Repository
	retention time.Duration
	now       func() time.Time
}

func New(repo Repository, retention time.Duration) *Service {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &Service{repo: repo, retention: retention, now: time.Now}
}

// ApplyMessage stores one pickup event read from Kafka. Malformed messages
// are logged and dropped so they do not block the partition.
func (s *Service) ApplyMessage(ctx context.Context, key, value []byte) error {
	ev, err := messages.UnmarshalPickupEvent(value)
	if err != nil {
		slog.Error("dropping malformed pickup event", "key", string(key), "err", err)
		return nil
	}
	e, err := entryFromEvent(ev)
	if err != nil {
		slog.Error("dropping pickup event", "event_id", ev.EventID, "err", err)
		return nil
	}
	n, err := s.repo.InsertEntries(ctx, []*models.JournalEntry{e})
	if err != nil {
		return err
	}
	if n == 0 {
		slog.Debug("pickup event already journaled", "event_id", ev.EventID)
	}
	return nil
}

func entryFromEvent(ev *messages.PickupEvent) (*models.JournalEntry, error) {
	e := &models.JournalEntry{
		EventID:     ev.EventID,
		OwnerKey:    ev.OwnerKey,
		PointID:     ev.PointID,
		ContainerID: ev.ContainerID,
		Cadence:     ev.Cadence,
		OccurredAt:  ev.OccurredAt,
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	switch ev.Type {
	case messages.TypePickupScheduled:
		e.EventType = models.JournalPickupScheduled
		if ev.PickupID != "" {
			id := ev.PickupID
			e.PickupID = &id
		}
		if ev.Day != "" {
			d, err := scheduling.ParseDay(ev.Day)
			if err != nil {
				return nil, errors.Wrap(err, "parse day")
			}
			e.Day = &d
		}
		if ev.Holiday != "" {
			e.Detail = "holiday: " + ev.Holiday
		}
	case messages.TypePointTimeChanged:
		e.EventType = models.JournalPointTimeChanged
		applied := ev.Applied != nil && *ev.Applied
		e.Detail = fmt.Sprintf("%s -> %s (requested %s, applied %t)",
			ev.PreviousTimeOfDay, ev.InEffectTimeOfDay, ev.RequestedTimeOfDay, applied)
	default:
		return nil, errors.Errorf("unknown event type %q", ev.Type)
	}
	return e, nil
}

// List is available to operators only.
func (s *Service) List(ctx context.Context, sess scheduler.Session, f pgjournal.ListFilter) ([]*models.JournalEntry, error) {
	if sess.Role != scheduler.RoleOperator {
		return nil, errors.Wrap(apperrors.ErrForbidden, "journal is operator only")
	}
	if f.OwnerKey != "" && !models.ValidOwnerKey(f.OwnerKey) {
		return nil, apperrors.Validation("owner_key", "expected 8 digits and an uppercase letter")
	}
	return s.repo.ListEntries(ctx, f)
}

// Purge deletes entries older than the retention period.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	slog.Info("journal purged", "deleted", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	return n, nil
}
