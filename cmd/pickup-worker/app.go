package main

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/BearBump/PickupBox/config"
	"github.com/BearBump/PickupBox/internal/broker/kafka"
	"github.com/BearBump/PickupBox/internal/services/journal"
	"github.com/BearBump/PickupBox/internal/storage/pgjournal"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

const (
	defaultTopic     = "pickup.events"
	defaultGroup     = "pickup-worker"
	defaultPurgeCron = "30 3 * * *"
)

// journalStore is the journal repository plus what the ops endpoints read.
type journalStore interface {
	journal.Repository
	Stats(ctx context.Context) (pgjournal.Stats, error)
	Ping(ctx context.Context) error
}

type eventConsumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
	Close() error
}

type workerFactories struct {
	newStorage  func(cfg *config.Config) (st journalStore, closeFn func(), err error)
	newConsumer func(cfg *config.Config, topic, group string) eventConsumer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (journalStore, func(), error) {
			st, err := pgjournal.New(cfg.PostgresDSN())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) eventConsumer {
			return kafka.NewConsumer(cfg.KafkaBrokers(), topic, group)
		},
	}
}

// workerState is shared with the HTTP endpoints.
type workerState struct {
	consumed  atomic.Int64
	lastPurge atomic.Pointer[time.Time]
}

type workerSettings struct {
	topic     string
	group     string
	purgeCron string
	retention time.Duration
}

func settingsFromConfig(cfg *config.Config) workerSettings {
	s := workerSettings{
		topic:     cfg.Kafka.PickupEventsTopicName,
		group:     cfg.PickupBox.KafkaConsumerGroup,
		purgeCron: cfg.PickupBox.JournalPurgeCron,
		retention: time.Duration(cfg.PickupBox.JournalRetentionDays) * 24 * time.Hour,
	}
	if s.topic == "" {
		s.topic = defaultTopic
	}
	if s.group == "" {
		s.group = defaultGroup
	}
	if s.purgeCron == "" {
		s.purgeCron = defaultPurgeCron
	}
	return s
}

// RunPickupWorker consumes scheduling events into the journal and purges old
// entries on a cron schedule. A failing handler stops the worker without
// committing the message.
func RunPickupWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	set := settingsFromConfig(cfg)

	st, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	svc := journal.New(st, set.retention)
	state := &workerState{}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(set.purgeCron, func() { runPurge(ctx, svc, state) }); err != nil {
		return errors.Wrapf(err, "schedule journal purge %q", set.purgeCron)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpOpts.cfg = cfg
	httpOpts.store = st
	httpOpts.journal = svc
	httpOpts.state = state
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, httpOpts)
	}()

	consumer := f.newConsumer(cfg, set.topic, set.group)
	defer func() { _ = consumer.Close() }()

	consumeErr := make(chan error, 1)
	go func() {
		slog.Info("kafka consumer started", "topic", set.topic, "group", set.group)
		consumeErr <- consumer.Consume(ctx, func(ctx context.Context, key, value []byte) error {
			if err := svc.ApplyMessage(ctx, key, value); err != nil {
				return err
			}
			state.consumed.Add(1)
			return nil
		})
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-consumeErr:
		if err == nil {
			return ctx.Err()
		}
		return errors.Wrap(err, "consume pickup events")
	case err := <-httpErr:
		if err == nil {
			return ctx.Err()
		}
		return err
	}
}

func runPurge(ctx context.Context, svc *journal.Service, state *workerState) {
	pctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if _, err := svc.Purge(pctx); err != nil {
		slog.Error("journal purge failed", "err", err)
		return
	}
	now := time.Now().UTC()
	state.lastPurge.Store(&now)
}
