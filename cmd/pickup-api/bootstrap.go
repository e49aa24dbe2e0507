package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/PickupBox/config"
	"github.com/BearBump/PickupBox/internal/api/httpapi"
	"github.com/BearBump/PickupBox/internal/broker/kafka"
	"github.com/BearBump/PickupBox/internal/cache/rediscache"
	"github.com/BearBump/PickupBox/internal/integrations/recordstore"
	"github.com/BearBump/PickupBox/internal/integrations/recordstore/httpstore"
	"github.com/BearBump/PickupBox/internal/integrations/recordstore/memstore"
	"github.com/BearBump/PickupBox/internal/logging"
	"github.com/BearBump/PickupBox/internal/scheduling"
	"github.com/BearBump/PickupBox/internal/services/journal"
	"github.com/BearBump/PickupBox/internal/services/owners"
	"github.com/BearBump/PickupBox/internal/services/scheduler"
	"github.com/BearBump/PickupBox/internal/storage/pgjournal"
	"github.com/joho/godotenv"
)

const serviceName = "pickup-api"

type pickupAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   pickupAPIOpts
	api    *httpapi.Server

	closers []func()
}

func mustBootstrapPickupAPI() *pickupAPIApp {
	_ = godotenv.Load()

	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("config parse error, %v", err))
	}
	flush, err := logging.Setup(serviceName, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	app := &pickupAPIApp{closers: []func(){flush}}

	pb := cfg.PickupBox
	grpcAddr := pb.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = ":50051"
	}
	httpAddr := pb.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.PickupEventsTopicName
	if topic == "" {
		topic = "pickup.events"
	}
	ownerTTL := time.Duration(pb.OwnerCacheTTLSeconds) * time.Second
	if ownerTTL <= 0 {
		ownerTTL = 10 * time.Minute
	}
	callTimeout := time.Duration(pb.StoreCallTimeoutSeconds) * time.Second
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	retention := time.Duration(pb.JournalRetentionDays) * 24 * time.Hour
	if pb.SessionSecret == "" {
		panic("pickupbox.session_secret is required")
	}

	store := newRecordStore(cfg)

	rc := rediscache.New(cfg.RedisAddr())
	rl := rediscache.NewRateLimiter(cfg.RedisAddr())
	app.closers = append(app.closers, func() { _ = rc.Close() }, func() { _ = rl.Close() })

	producer := kafka.NewProducer(cfg.KafkaBrokers())
	app.closers = append(app.closers, func() { _ = producer.Close() })

	st := mustOpenPostgresWithRetry(cfg.PostgresDSN(), 60*time.Second)
	app.closers = append(app.closers, st.Close)

	sched := scheduler.New(store, producer, scheduler.Config{
		HorizonDays: pb.DefaultHorizonDays,
		Occurrences: pb.Occurrences,
		CallTimeout: callTimeout,
		EventsTopic: topic,
	}).WithHolidays(scheduling.NewHolidays())
	ow := owners.New(store, sched, rc, ownerTTL).WithCallTimeout(callTimeout)
	jr := journal.New(st, retention)

	app.api = httpapi.New(sched, ow, jr, httpapi.NewCookieStore(pb.SessionSecret, os.Getenv("insecureCookies") == ""), httpapi.Options{
		OperatorPasswordHash:   pb.OperatorPasswordHash,
		AllowedOrigins:         pb.AllowedOrigins,
		ScheduleLimitPerMinute: int64(pb.ScheduleRateLimitPerMinute),
	}).WithRateLimiter(rl)

	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.opts = pickupAPIOpts{
		grpcAddr:    grpcAddr,
		httpAddr:    httpAddr,
		swaggerPath: swaggerPath,
	}
	slog.Info("pickup-api configured", "record_store", storeMode(cfg), "topic", topic, "horizon_days", pb.DefaultHorizonDays)
	return app
}

func storeMode(cfg *config.Config) string {
	if cfg.RecordStore.Mode == "" {
		return "http"
	}
	return cfg.RecordStore.Mode
}

// newRecordStore picks the record-store backend. "memory" keeps everything in
// process and is meant for demos.
func newRecordStore(cfg *config.Config) recordstore.Store {
	switch storeMode(cfg) {
	case "memory":
		return memstore.New()
	default:
		timeout := time.Duration(cfg.RecordStore.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		return httpstore.New(cfg.RecordStore.BaseURL, cfg.RecordStore.APIKey, timeout, cfg.RecordStore.RequestsPerSecond)
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgjournal.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgjournal.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *pickupAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *pickupAPIApp) Run() error {
	return runPickupAPI(a.ctx, a.opts, a.api)
}
