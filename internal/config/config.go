// Package config loads service settings from the environment. A .env file
// in the working directory is honored for local runs; real deployments set
// variables through the orchestrator.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Decode settings.
	DecodeWorkers    int
	DecodeTimeout    time.Duration
	StrictDecode     bool
	SkipTestProducts bool

	// Redis-backed VTEC lifecycle tracking. Disabled when no address is
	// set; tracking then runs in-process only.
	RedisAddr  string
	TrackerTTL time.Duration

	// Postgres product archive (feature-flagged via POSTGRES_DSN).
	PostgresDSN string

	// S3 raw bulletin archive (feature-flagged via ARCHIVE_BUCKET).
	ArchiveBucket   string
	ArchiveEndpoint string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	// Best-effort: absence of a .env file is the normal case.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	decodeWorkers, err := parseIntInRange("DECODE_WORKERS", 4, 1, 64)
	if err != nil {
		return nil, err
	}

	decodeTimeout, err := parseDuration("DECODE_TIMEOUT", "2s")
	if err != nil {
		return nil, err
	}

	trackerTTL, err := parseDuration("TRACKER_TTL", "336h")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-nws-bulletins"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "decoded-hazard-products"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "hazard-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		DecodeWorkers:    decodeWorkers,
		DecodeTimeout:    decodeTimeout,
		StrictDecode:     os.Getenv("STRICT_DECODE") == "true",
		SkipTestProducts: envOrDefault("SKIP_TEST_PRODUCTS", "true") == "true",

		RedisAddr:  os.Getenv("REDIS_ADDR"),
		TrackerTTL: trackerTTL,

		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		ArchiveBucket:   os.Getenv("ARCHIVE_BUCKET"),
		ArchiveEndpoint: os.Getenv("ARCHIVE_ENDPOINT"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.ArchiveEndpoint != "" && cfg.ArchiveBucket == "" {
		return nil, errors.New("ARCHIVE_ENDPOINT is set but ARCHIVE_BUCKET is not")
	}

	return cfg, nil
}

// TrackerEnabled reports whether cross-instance lifecycle tracking is on.
func (c *Config) TrackerEnabled() bool { return c.RedisAddr != "" }

// ArchiveEnabled reports whether raw bulletins are archived to S3.
func (c *Config) ArchiveEnabled() bool { return c.ArchiveBucket != "" }

// ProductStoreEnabled reports whether decoded products are upserted into
// Postgres.
func (c *Config) ProductStoreEnabled() bool { return c.PostgresDSN != "" }

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	return parseIntInRange("BATCH_SIZE", 50, 1, 1000)
}

func parseIntInRange(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}
