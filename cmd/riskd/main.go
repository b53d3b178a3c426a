// Command riskd recomputes the climate-risk assessment on a fixed interval and
// serves the latest report over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/urban-climate-risk/internal/adapter/artifact"
	httpadapter "github.com/couchcryptid/urban-climate-risk/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/urban-climate-risk/internal/adapter/kafka"
	"github.com/couchcryptid/urban-climate-risk/internal/adapter/sqlite"
	"github.com/couchcryptid/urban-climate-risk/internal/config"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/indicator"
	"github.com/couchcryptid/urban-climate-risk/internal/observability"
	"github.com/couchcryptid/urban-climate-risk/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := indicator.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load indicator catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(ctx, cfg.SnapshotPath)
	if err != nil {
		logger.Error("failed to open snapshot", "path", cfg.SnapshotPath, "error", err)
		os.Exit(1)
	}

	sinks := []pipeline.Sink{artifact.NewWriter(cfg.OutputPath)}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka sink disabled")
	}

	p := pipeline.New(store, catalog, pipeline.Options{
		Cohort:        cfg.Cohort,
		Year:          cfg.SnapshotYear,
		Normalization: cfg.Normalization,
		Workers:       cfg.Workers,
	}, logger, metrics)
	runner := pipeline.NewRunner(p, cfg.RunInterval, nil, logger, metrics, sinks...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, runner, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scoring loop. A configuration error ends the process.
	loopErr := make(chan error, 1)
	go func() {
		err := runner.Run(ctx)
		if err != nil {
			logger.Error("scoring loop stopped", "error", err)
			stop()
		}
		loopErr <- err
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	runErr := <-loopErr
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("snapshot close error", "error", err)
	}

	logger.Info("shutdown complete")

	if code := exitCode(runErr); code != 0 {
		cancel()
		os.Exit(code)
	}
}

// exitCode maps the scoring loop's final error to the process status:
// 2 for a configuration error, 1 for any other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrConfiguration):
		return 2
	default:
		return 1
	}
}
