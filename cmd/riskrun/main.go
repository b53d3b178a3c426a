// Command riskrun scores the cohort once and writes the assessment artifact.
//
// Usage:
//
//	go run ./cmd/riskrun -snapshot data/snapshot.db -out out/assessment.json \
//	  -cohort tashkent,samarkand,bukhara -percentile 5 -publish
//
// Flags override the environment configuration; validation runs after the
// overrides are applied.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/urban-climate-risk/internal/adapter/artifact"
	kafkaadapter "github.com/couchcryptid/urban-climate-risk/internal/adapter/kafka"
	"github.com/couchcryptid/urban-climate-risk/internal/adapter/sqlite"
	"github.com/couchcryptid/urban-climate-risk/internal/config"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/indicator"
	"github.com/couchcryptid/urban-climate-risk/internal/observability"
	"github.com/couchcryptid/urban-climate-risk/internal/pipeline"
)

func main() {
	err := run()
	if err != nil {
		slog.Error("scoring run failed", "error", err)
	}
	if code := exitCode(err); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps a run error to the process status: 2 for a configuration
// error, 1 for any other failure.
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

func run() error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, flag.CommandLine, os.Args[1:]); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := indicator.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(ctx, cfg.SnapshotPath)
	if err != nil {
		return err
	}
	defer store.Close()

	file := artifact.NewWriter(cfg.OutputPath)
	sinks := []pipeline.Sink{file}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger, metrics)
		defer writer.Close()
		sinks = append(sinks, writer)
	}

	p := pipeline.New(store, catalog, pipeline.Options{
		Cohort:        cfg.Cohort,
		Year:          cfg.SnapshotYear,
		Normalization: cfg.Normalization,
		Workers:       cfg.Workers,
	}, logger, metrics)

	report, err := pipeline.NewRunner(p, cfg.RunInterval, nil, logger, metrics, sinks...).RunOnce(ctx)
	if err != nil {
		return err
	}

	logger.Info("assessment written",
		"path", file.Path(),
		"run_id", report.RunID,
		"cities", report.Summary.Size,
		"excluded", report.Summary.Excluded,
		"risk_median", report.Summary.Risk.Median,
	)
	return nil
}

// applyFlags parses args into cfg. Each flag defaults to the value already
// loaded from the environment, so unset flags leave cfg untouched.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, args []string) error {
	cohort := fs.String("cohort", strings.Join(cfg.Cohort, ","), "comma-separated city IDs (empty scores every city)")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "output path for the assessment artifact")
	fs.StringVar(&cfg.SnapshotPath, "snapshot", cfg.SnapshotPath, "path to the snapshot database")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "path to a CUE indicator catalog (empty uses the built-in one)")
	fs.IntVar(&cfg.SnapshotYear, "year", cfg.SnapshotYear, "snapshot year (0 uses the latest available)")
	fs.Float64Var(&cfg.Normalization.Floor, "floor", cfg.Normalization.Floor, "lowest normalized score")
	fs.Float64Var(&cfg.Normalization.Ceiling, "ceiling", cfg.Normalization.Ceiling, "highest normalized score")
	fs.Float64Var(&cfg.Normalization.Percentile, "percentile", cfg.Normalization.Percentile, "winsorizing percentile, in [0, 50)")
	fs.BoolVar(&cfg.KafkaEnabled, "publish", cfg.KafkaEnabled, "also publish city records to Kafka")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Cohort = config.SplitList(*cohort)

	return cfg.Validate()
}
