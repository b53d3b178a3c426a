package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/urban-climate-risk/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		dropped slog.Level
	}{
		{"DEBUG", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warning", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"bogus", slog.LevelInfo, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			restoreDefaultLogger(t)
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})

			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.enabled))
			assert.False(t, logger.Enabled(ctx, tt.dropped))
		})
	}
}

func TestNewLogger_Formats(t *testing.T) {
	tests := []struct {
		format string
		text   bool
	}{
		{"json", false},
		{"TEXT", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			restoreDefaultLogger(t)
			logger := NewLogger(&config.Config{LogLevel: "info", LogFormat: tt.format})

			_, isText := logger.Handler().(*slog.TextHandler)
			_, isJSON := logger.Handler().(*slog.JSONHandler)
			assert.Equal(t, tt.text, isText)
			assert.Equal(t, !tt.text, isJSON)
		})
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	restoreDefaultLogger(t)
	logger := NewLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})

	assert.Same(t, logger, slog.Default())
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Imputations.WithLabelValues("heat_hazard").Add(3)

	assert.InDelta(t, 3, testutil.ToFloat64(a.Imputations.WithLabelValues("heat_hazard")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.Imputations.WithLabelValues("heat_hazard")), 0)
}
