//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/urban-climate-risk/internal/adapter/artifact"
	"github.com/couchcryptid/urban-climate-risk/internal/adapter/kafka"
	"github.com/couchcryptid/urban-climate-risk/internal/config"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/indicator"
	"github.com/couchcryptid/urban-climate-risk/internal/observability"
	"github.com/couchcryptid/urban-climate-risk/internal/pipeline"
	"github.com/couchcryptid/urban-climate-risk/internal/sample"
	"github.com/couchcryptid/urban-climate-risk/internal/snapshot"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "test-climate-risk"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.6.1",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(stopCtx); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// publishedRecord holds a deserialized message read from the sink topic.
type publishedRecord struct {
	Message kafka.CityMessage
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedRecord {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var payload kafka.CityMessage
	require.NoError(t, json.Unmarshal(msg.Value, &payload), "unmarshal sink message")

	return publishedRecord{Message: payload, Key: string(msg.Key), Headers: headers}
}

// TestRunnerPublishesCityRecords scores the sample cohort and checks that
// every city record reaches the topic alongside the artifact file.
func TestRunnerPublishesCityRecords(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaEnabled:       true,
		KafkaBrokers:       []string{broker},
		KafkaSinkTopic:     testSinkTopic,
		BatchSize:          50,
		BatchFlushInterval: 100 * time.Millisecond,
	}

	src := snapshot.NewMemory()
	require.NoError(t, sample.Seed(ctx, src, 42))
	catalog, err := indicator.Default()
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(src, catalog, pipeline.Options{
		Normalization: domain.DefaultNormalization(),
		Workers:       4,
	}, discardLogger(), metrics)

	writer := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })
	file := artifact.NewWriter(t.TempDir() + "/report.json")

	runner := pipeline.NewRunner(p, time.Hour, nil, discardLogger(), metrics, file, writer)
	report, err := runner.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, report.Cities, len(sample.Cities()))

	written, err := artifact.Read(file.Path())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, written.RunID)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byCity := make(map[string]domain.CityRecord, len(report.Cities))
	for _, rec := range report.Cities {
		byCity[rec.City.ID] = rec
	}

	seen := make(map[string]bool, len(report.Cities))
	for len(seen) < len(report.Cities) {
		pr := readPublished(ctx, t, consumer)
		want, ok := byCity[pr.Key]
		require.True(t, ok, "unexpected key %q", pr.Key)
		seen[pr.Key] = true

		assert.Equal(t, string(want.Category), pr.Headers["category"])
		assert.Equal(t, report.RunID, pr.Headers["run_id"])
		_, err := time.Parse(time.RFC3339, pr.Headers["generated_at"])
		assert.NoError(t, err, "generated_at should be valid RFC3339")

		assert.Equal(t, report.RunID, pr.Message.RunID)
		assert.Equal(t, pr.Key, pr.Message.Record.City.ID)
		assert.Equal(t, want.RiskRank, pr.Message.Record.RiskRank)
		assert.InDelta(t, want.Risk, pr.Message.Record.Risk, 1e-12)
	}
}
