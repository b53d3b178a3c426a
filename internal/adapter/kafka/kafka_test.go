package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testReport() *domain.Report {
	return &domain.Report{
		RunID:       "run-00ff00ff00ff00ff",
		GeneratedAt: time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC),
		Year:        2024,
		Cities: []domain.CityRecord{
			{City: domain.City{ID: "tashkent"}, Risk: 0.12, Category: domain.CategoryCritical, RiskRank: 1},
			{City: domain.City{ID: "navoiy"}, Risk: 0.02, Category: domain.CategoryLow, RiskRank: 2},
		},
	}
}

func TestSerializeToMessage(t *testing.T) {
	report := testReport()

	msg, err := serializeToMessage(report, report.Cities[0])
	require.NoError(t, err)

	assert.Equal(t, []byte("tashkent"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "category", msg.Headers[0].Key)
	assert.Equal(t, []byte("CRITICAL"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("run-00ff00ff00ff00ff"), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2025-03-01T12:00:00Z"), msg.Headers[2].Value)

	var payload CityMessage
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, "run-00ff00ff00ff00ff", payload.RunID)
	assert.Equal(t, 2024, payload.Year)
	assert.Equal(t, "tashkent", payload.Record.City.ID)
	assert.InDelta(t, 0.12, payload.Record.Risk, 0)
}

func TestWriter_Write(t *testing.T) {
	fake := &fakeWriter{}
	metrics := observability.NewMetricsForTesting()
	w := &Writer{writer: fake, logger: slog.Default(), metrics: metrics}

	require.NoError(t, w.Write(context.Background(), testReport()))

	require.Len(t, fake.msgs, 2)
	assert.Equal(t, []byte("navoiy"), fake.msgs[1].Key)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RecordsPublished), 0)
	assert.Equal(t, "kafka", w.Name())

	require.NoError(t, w.Close())
	assert.True(t, fake.closed)
}

func TestWriter_WriteEmptyReport(t *testing.T) {
	fake := &fakeWriter{err: errors.New("must not be called")}
	w := &Writer{writer: fake, logger: slog.Default(), metrics: observability.NewMetricsForTesting()}

	assert.NoError(t, w.Write(context.Background(), &domain.Report{}))
}

func TestWriter_WriteError(t *testing.T) {
	fake := &fakeWriter{err: errors.New("leader not available")}
	metrics := observability.NewMetricsForTesting()
	w := &Writer{writer: fake, logger: slog.Default(), metrics: metrics}

	err := w.Write(context.Background(), testReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.RecordsPublished), 0)
}
