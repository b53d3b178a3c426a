package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SnapshotPath  string
	SnapshotYear  int
	Cohort        []string
	OutputPath    string
	CatalogPath   string
	Normalization domain.NormalizationOptions
	Workers       int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	RunInterval     time.Duration

	// Kafka sink configuration.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaSinkTopic     string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the result.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads configuration from environment variables without the
// cross-field checks, so callers can apply overrides before Validate.
// Every error wraps domain.ErrConfiguration.
func Parse() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	runInterval, err := parseDuration("RUN_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}

	year, err := parseInt("SNAPSHOT_YEAR", 0)
	if err != nil {
		return nil, err
	}
	workers, err := parseInt("WORKERS", 8)
	if err != nil {
		return nil, err
	}

	defaults := domain.DefaultNormalization()
	floor, err := parseFloat("NORM_FLOOR", defaults.Floor)
	if err != nil {
		return nil, err
	}
	ceiling, err := parseFloat("NORM_CEILING", defaults.Ceiling)
	if err != nil {
		return nil, err
	}
	percentile, err := parseFloat("NORM_PERCENTILE", defaults.Percentile)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid KAFKA_ENABLED %q", domain.ErrConfiguration, v)
		}
	}

	cfg := &Config{
		SnapshotPath:  sharedcfg.EnvOrDefault("SNAPSHOT_PATH", "data/snapshot.db"),
		SnapshotYear:  year,
		Cohort:        SplitList(os.Getenv("COHORT")),
		OutputPath:    sharedcfg.EnvOrDefault("OUTPUT_PATH", "out/climate_risk_assessment.json"),
		CatalogPath:   os.Getenv("CATALOG_PATH"),
		Normalization: domain.NormalizationOptions{Floor: floor, Ceiling: ceiling, Percentile: percentile},
		Workers:       workers,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RunInterval:     runInterval,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "climate-risk-scores"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Every error wraps
// domain.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.Normalization.Validate(); err != nil {
		return fmt.Errorf("NORM_FLOOR/NORM_CEILING/NORM_PERCENTILE: %w", err)
	}
	if c.SnapshotYear < 0 {
		return fmt.Errorf("%w: SNAPSHOT_YEAR must not be negative", domain.ErrConfiguration)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: WORKERS must be positive", domain.ErrConfiguration)
	}
	if c.SnapshotPath == "" {
		return fmt.Errorf("%w: SNAPSHOT_PATH is required", domain.ErrConfiguration)
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("%w: KAFKA_BROKERS is required when KAFKA_ENABLED is true", domain.ErrConfiguration)
		}
		if c.KafkaSinkTopic == "" {
			return fmt.Errorf("%w: KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true", domain.ErrConfiguration)
		}
	}
	return nil
}

// SplitList parses a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrConfiguration, key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrConfiguration, key, s)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrConfiguration, key, s)
	}
	return f, nil
}
