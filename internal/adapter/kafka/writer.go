package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/urban-climate-risk/internal/config"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// CityMessage is the payload of one published record.
type CityMessage struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Year        int               `json:"year"`
	Record      domain.CityRecord `json:"record"`
}

// Writer publishes one message per city record to the sink topic.
// It implements pipeline.Sink.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchFlushInterval,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// Write serializes and publishes every city record of the report in a single
// WriteMessages call. Keys are city IDs so a city's records stay ordered on
// one partition.
func (w *Writer) Write(ctx context.Context, report *domain.Report) error {
	if len(report.Cities) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(report.Cities))
	for i := range report.Cities {
		msg, err := serializeToMessage(report, report.Cities[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d records: %w", len(msgs), err)
	}
	w.metrics.RecordsPublished.Add(float64(len(msgs)))
	w.logger.Debug("published city records", "run_id", report.RunID, "records", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CityRecord into a Kafka message.
func serializeToMessage(report *domain.Report, rec domain.CityRecord) (kafkago.Message, error) {
	data, err := json.Marshal(CityMessage{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt,
		Year:        report.Year,
		Record:      rec,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize city record %s: %w", rec.City.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.City.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(rec.Category)},
			{Key: "run_id", Value: []byte(report.RunID)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
