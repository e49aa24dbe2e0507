package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/PickupBox/config"
	"github.com/BearBump/PickupBox/internal/broker/kafka"
	"github.com/BearBump/PickupBox/internal/broker/messages"
	"github.com/BearBump/PickupBox/internal/models"
	"github.com/BearBump/PickupBox/internal/services/journal"
	"github.com/BearBump/PickupBox/internal/storage/pgjournal"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	entries   []*models.JournalEntry
	insertErr error
	pingErr   error
	purged    int
}

func (s *fakeStore) InsertEntries(ctx context.Context, entries []*models.JournalEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.entries = append(s.entries, entries...)
	return len(entries), nil
}

func (s *fakeStore) ListEntries(ctx context.Context, f pgjournal.ListFilter) ([]*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries, nil
}

func (s *fakeStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purged++
	return 2, nil
}

func (s *fakeStore) Stats(ctx context.Context) (pgjournal.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pgjournal.Stats{Entries: int64(len(s.entries))}, nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return s.pingErr }

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// fakeConsumer hands its messages to the handler, then blocks until ctx is done.
type fakeConsumer struct {
	msgs   [][]byte
	closed bool
}

func (c *fakeConsumer) Consume(ctx context.Context, handler kafka.Handler) error {
	for _, m := range c.msgs {
		if err := handler(ctx, []byte("12345678Z"), m); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return nil
}

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

func event(t *testing.T, id string) []byte {
	t.Helper()
	b, err := (&messages.PickupEvent{
		EventID:     id,
		Type:        messages.TypePickupScheduled,
		OccurredAt:  time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC),
		OwnerKey:    "12345678Z",
		PointID:     "p1",
		ContainerID: "c1",
		PickupID:    "k-" + id,
		Day:         "2024-05-07",
		Cadence:     "Diaria",
	}).Marshal()
	require.NoError(t, err)
	return b
}

func swaggerFile(t *testing.T) string {
	t.Helper()
	sw := filepath.Join(t.TempDir(), "worker.swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	return sw
}

func factories(st *fakeStore, c *fakeConsumer) workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (journalStore, func(), error) {
			return st, nil, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) eventConsumer {
			return c
		},
	}
}

func TestSettingsFromConfig_Defaults(t *testing.T) {
	s := settingsFromConfig(&config.Config{})
	require.Equal(t, defaultTopic, s.topic)
	require.Equal(t, defaultGroup, s.group)
	require.Equal(t, defaultPurgeCron, s.purgeCron)

	s = settingsFromConfig(&config.Config{
		Kafka:     config.KafkaConfig{PickupEventsTopicName: "events"},
		PickupBox: config.PickupBoxConfig{KafkaConsumerGroup: "g", JournalPurgeCron: "@hourly", JournalRetentionDays: 7},
	})
	require.Equal(t, "events", s.topic)
	require.Equal(t, "g", s.group)
	require.Equal(t, "@hourly", s.purgeCron)
	require.Equal(t, 7*24*time.Hour, s.retention)
}

func TestRunPickupWorker_JournalsEvents(t *testing.T) {
	st := &fakeStore{}
	cons := &fakeConsumer{msgs: [][]byte{event(t, "e1"), []byte("not json"), event(t, "e2")}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sw := swaggerFile(t)
	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunPickupWorker(ctx, &config.Config{}, factories(st, cons), workerHTTPOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: sw,
			onListen:    func(addr string) { addrCh <- addr },
		})
	}()
	addr := <-addrCh

	require.Eventually(t, func() bool { return st.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, models.JournalPickupScheduled, st.entries[0].EventType)

	var stats map[string]any
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/stats")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		stats = nil
		if json.NewDecoder(resp.Body).Decode(&stats) != nil {
			return false
		}
		return stats["consumedSinceStart"] == float64(3)
	}, 2*time.Second, 20*time.Millisecond)
	require.EqualValues(t, 2, stats["journalEntries"])
	require.Equal(t, defaultTopic, stats["topic"])

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.True(t, cons.closed)
}

func TestRunPickupWorker_StopsOnStoreFailure(t *testing.T) {
	st := &fakeStore{insertErr: errors.New("db down")}
	cons := &fakeConsumer{msgs: [][]byte{event(t, "e1")}}

	err := RunPickupWorker(context.Background(), &config.Config{}, factories(st, cons), workerHTTPOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: swaggerFile(t),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "db down")
}

func TestRunPickupWorker_BadCron(t *testing.T) {
	cfg := &config.Config{PickupBox: config.PickupBoxConfig{JournalPurgeCron: "not a cron"}}
	err := RunPickupWorker(context.Background(), cfg, factories(&fakeStore{}, &fakeConsumer{}), workerHTTPOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: swaggerFile(t),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "schedule journal purge")
}

func TestWorkerRouter_PurgeAndReadiness(t *testing.T) {
	st := &fakeStore{}
	state := &workerState{}
	r := workerRouter(workerHTTPOpts{
		swaggerPath: swaggerFile(t),
		cfg:         &config.Config{},
		store:       st,
		journal:     journal.New(st, 0),
		state:       state,
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/purge", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"deleted":2}`, rec.Body.String())
	require.Equal(t, 1, st.purged)
	require.NotNil(t, state.lastPurge.Load())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	st.pingErr = errors.New("no db")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRunWorkerHTTPServer_RequiresSwagger(t *testing.T) {
	err := runWorkerHTTPServer(context.Background(), workerHTTPOpts{httpAddr: "127.0.0.1:0"})
	require.Error(t, err)
}
