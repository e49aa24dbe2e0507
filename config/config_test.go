package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  pickup_events_topic_name: "pickup.events"
redis:
  host: "localhost"
  port: 6379
record_store:
  mode: "http"
  base_url: "http://records:8000"
  timeout_seconds: 5
  requests_per_second: 20.5
log:
  level: "debug"
  format: "console"
pickupbox:
  http_addr: ":8080"
  grpc_addr: ":50051"
  kafka_consumer_group: "pickup-worker"
  default_horizon_days: 30
  occurrences: 5
  allowed_origins: ["http://localhost:3000"]
  journal_purge_cron: "0 3 * * *"
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "pickup.events", cfg.Kafka.PickupEventsTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, "http://records:8000", cfg.RecordStore.BaseURL)
	require.Equal(t, 20.5, cfg.RecordStore.RequestsPerSecond)
	require.Equal(t, "console", cfg.Log.Format)
	require.Equal(t, ":8080", cfg.PickupBox.HTTPAddr)
	require.Equal(t, 30, cfg.PickupBox.DefaultHorizonDays)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.PickupBox.AllowedOrigins)

	require.Equal(t, "postgres://u:p@localhost:5432/db?sslmode=disable", cfg.PostgresDSN())
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers())
	require.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("database: [unclosed"), 0o600))
	_, err = LoadConfig(p)
	require.Error(t, err)
}
