package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	RecordStore RecordStoreConfig `yaml:"record_store"`
	Log         LogConfig         `yaml:"log"`
	PickupBox   PickupBoxConfig   `yaml:"pickupbox"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	PickupEventsTopicName string `yaml:"pickup_events_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type RecordStoreConfig struct {
	Mode              string  `yaml:"mode"` // "http" | "memory"
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" | "console"
}

type PickupBoxConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	GRPCAddr           string `yaml:"grpc_addr"`
	WorkerHTTPAddr     string `yaml:"worker_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	OwnerCacheTTLSeconds       int `yaml:"owner_cache_ttl_seconds"`
	DefaultHorizonDays         int `yaml:"default_horizon_days"`
	Occurrences                int `yaml:"occurrences"`
	StoreCallTimeoutSeconds    int `yaml:"store_call_timeout_seconds"`
	ScheduleRateLimitPerMinute int `yaml:"schedule_rate_limit_per_minute"`

	SessionSecret        string   `yaml:"session_secret"`
	OperatorPasswordHash string   `yaml:"operator_password_hash"` // bcrypt
	AllowedOrigins       []string `yaml:"allowed_origins"`

	JournalRetentionDays int    `yaml:"journal_retention_days"`
	JournalPurgeCron     string `yaml:"journal_purge_cron"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

// PostgresDSN builds the pgx connection string.
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.DBName, sslMode)
}

func (c *Config) KafkaBrokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Kafka.Host, c.Kafka.Port)}
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
