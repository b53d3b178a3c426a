package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/snapshot.db", cfg.SnapshotPath)
	assert.Equal(t, 0, cfg.SnapshotYear)
	assert.Empty(t, cfg.Cohort)
	assert.Equal(t, "out/climate_risk_assessment.json", cfg.OutputPath)
	assert.Empty(t, cfg.CatalogPath)
	assert.Equal(t, domain.DefaultNormalization(), cfg.Normalization)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Hour, cfg.RunInterval)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "climate-risk-scores", cfg.KafkaSinkTopic)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SNAPSHOT_PATH", "/var/lib/risk/snapshot.db")
	t.Setenv("SNAPSHOT_YEAR", "2023")
	t.Setenv("COHORT", "tashkent, samarkand ,,bukhara")
	t.Setenv("OUTPUT_PATH", "/tmp/out.json")
	t.Setenv("CATALOG_PATH", "/etc/risk/catalog.cue")
	t.Setenv("NORM_FLOOR", "0.1")
	t.Setenv("NORM_CEILING", "0.9")
	t.Setenv("NORM_PERCENTILE", "10")
	t.Setenv("WORKERS", "2")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("RUN_INTERVAL", "15m")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/risk/snapshot.db", cfg.SnapshotPath)
	assert.Equal(t, 2023, cfg.SnapshotYear)
	assert.Equal(t, []string{"tashkent", "samarkand", "bukhara"}, cfg.Cohort)
	assert.Equal(t, "/tmp/out.json", cfg.OutputPath)
	assert.Equal(t, "/etc/risk/catalog.cue", cfg.CatalogPath)
	assert.Equal(t, domain.NormalizationOptions{Floor: 0.1, Ceiling: 0.9, Percentile: 10}, cfg.Normalization)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15*time.Minute, cfg.RunInterval)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"BATCH_SIZE", "0"},
		{"BATCH_FLUSH_INTERVAL", "not-a-duration"},
		{"RUN_INTERVAL", "0s"},
		{"RUN_INTERVAL", "soon"},
		{"SNAPSHOT_YEAR", "last"},
		{"SNAPSHOT_YEAR", "-1"},
		{"WORKERS", "0"},
		{"WORKERS", "many"},
		{"NORM_FLOOR", "low"},
		{"NORM_CEILING", "high"},
		{"NORM_PERCENTILE", "p5"},
		{"KAFKA_ENABLED", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_NormalizationBounds(t *testing.T) {
	tests := []struct {
		name                       string
		floor, ceiling, percentile string
	}{
		{"floor zero", "0", "0.95", "5"},
		{"ceiling one", "0.05", "1", "5"},
		{"floor above ceiling", "0.9", "0.1", "5"},
		{"percentile half", "0.05", "0.95", "50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NORM_FLOOR", tt.floor)
			t.Setenv("NORM_CEILING", tt.ceiling)
			t.Setenv("NORM_PERCENTILE", tt.percentile)
			_, err := Load()
			require.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestParse_DefersCrossFieldChecks(t *testing.T) {
	t.Setenv("NORM_FLOOR", "0.9")
	t.Setenv("NORM_CEILING", "0.1")
	t.Setenv("WORKERS", "0")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Normalization.Floor)
	require.ErrorIs(t, cfg.Validate(), domain.ErrConfiguration)

	cfg.Normalization = domain.DefaultNormalization()
	cfg.Workers = 4
	assert.NoError(t, cfg.Validate())
}

func TestParse_MalformedValues(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "maybe")

	_, err := Parse()
	require.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorContains(t, err, "KAFKA_ENABLED")
}

func TestValidate_KafkaEnabledRequiresTopic(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.KafkaEnabled = true
	cfg.KafkaSinkTopic = ""
	assert.ErrorContains(t, cfg.Validate(), "KAFKA_SINK_TOPIC")
	assert.ErrorIs(t, cfg.Validate(), domain.ErrConfiguration)

	cfg.KafkaSinkTopic = "climate-risk-scores"
	cfg.KafkaBrokers = nil
	assert.ErrorContains(t, cfg.Validate(), "KAFKA_BROKERS")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a,,b ,"))
}
