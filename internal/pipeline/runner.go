package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 30 * time.Second
)

// Sink delivers a finished report somewhere: a file, a topic.
type Sink interface {
	Name() string
	Write(ctx context.Context, report *domain.Report) error
}

// Runner executes the pipeline, hands each report to the sinks and keeps the
// latest successful report for readers.
type Runner struct {
	pipeline *Pipeline
	sinks    []Sink
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	latest   atomic.Pointer[domain.Report]
}

// NewRunner creates a Runner. A nil clock uses real time.
func NewRunner(p *Pipeline, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{
		pipeline: p,
		sinks:    sinks,
		clock:    clock,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if r.latest.Load() == nil {
		return errors.New("no scoring run has completed yet")
	}
	return nil
}

// Latest returns the most recent successful report, or nil.
func (r *Runner) Latest() *domain.Report {
	return r.latest.Load()
}

// RunOnce scores the cohort and delivers the report to every sink. The report
// is kept as latest even when a sink fails; the first sink error is returned.
func (r *Runner) RunOnce(ctx context.Context) (*domain.Report, error) {
	report, err := r.pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}
	r.latest.Store(report)
	r.logger.Info("scoring run complete",
		"run_id", report.RunID,
		"cities", len(report.Cities),
		"audit_entries", len(report.Audit),
	)

	var firstErr error
	for _, s := range r.sinks {
		if err := s.Write(ctx, report); err != nil {
			r.metrics.SinkWrites.WithLabelValues(s.Name(), "error").Inc()
			r.logger.Error("sink write failed", "sink", s.Name(), "run_id", report.RunID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("sink %s: %w", s.Name(), err)
			}
			continue
		}
		r.metrics.SinkWrites.WithLabelValues(s.Name(), "success").Inc()
	}
	return report, firstErr
}

// Run scores the cohort immediately and then once per interval until the
// context is cancelled. Failed runs are retried with exponential backoff;
// configuration errors stop the loop because retrying cannot fix them.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("scoring loop started", "interval", r.interval)
	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	backoff := initialBackoff
	for {
		if _, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("scoring loop stopping", "reason", ctx.Err())
				return nil
			}
			if errors.Is(err, domain.ErrConfiguration) {
				return err
			}
			r.logger.Error("scoring run failed", "error", err, "retry_in", backoff)
			if !r.sleep(ctx, backoff) {
				return nil
			}
			backoff = retry.NextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = initialBackoff

		select {
		case <-ctx.Done():
			r.logger.Info("scoring loop stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-r.clock.After(d):
		return true
	}
}
