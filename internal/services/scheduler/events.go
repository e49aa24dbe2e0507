package scheduler

import (
	"context"
	"log/slog"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/BearBump/PickupBox/internal/broker/messages"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/google/uuid"
)

func (s *Service) publishScheduled(ctx context.Context, a *attempt, acc AcceptedDate) {
	ev := &messages.PickupEvent{
		Type:        messages.TypePickupScheduled,
		OwnerKey:    a.req.OwnerKey,
		PointID:     a.point.ID,
		ContainerID: a.container.ID,
		Day:         scheduling.DayKey(acc.Day),
		Cadence:     a.label,
		Holiday:     acc.Holiday,
	}
	if acc.Pickup != nil {
		ev.PickupID = acc.Pickup.ID
	}
	s.publish(ctx, ev)
}

func (s *Service) publishPointChanged(ctx context.Context, a *attempt, w apperrors.ReconciliationWarning) {
	applied := w.Applied
	s.publish(ctx, &messages.PickupEvent{
		Type:               messages.TypePointTimeChanged,
		OwnerKey:           a.req.OwnerKey,
		PointID:            w.PointID,
		PreviousTimeOfDay:  w.Previous,
		RequestedTimeOfDay: w.Requested,
		InEffectTimeOfDay:  w.InEffect,
		Applied:            &applied,
	})
}

// publish is best effort: the pickup already exists in the record store.
func (s *Service) publish(ctx context.Context, ev *messages.PickupEvent) {
	if s.pub == nil || s.cfg.EventsTopic == "" {
		return
	}
	ev.EventID = uuid.NewString()
	ev.OccurredAt = s.now().UTC()

	b, err := ev.Marshal()
	if err != nil {
		slog.Error("marshal pickup event", "err", err)
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CallTimeout)
	defer cancel()
	if err := s.pub.Publish(pctx, s.cfg.EventsTopic, []byte(ev.OwnerKey), b); err != nil {
		slog.Error("publish pickup event", "type", ev.Type, "owner_key", ev.OwnerKey, "err", err)
	}
}
