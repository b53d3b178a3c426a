package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/urban-climate-risk/internal/cohort"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/indicator"
	"github.com/couchcryptid/urban-climate-risk/internal/observability"
	"github.com/couchcryptid/urban-climate-risk/internal/ranking"
	"github.com/couchcryptid/urban-climate-risk/internal/scoring"
	"github.com/couchcryptid/urban-climate-risk/internal/snapshot"
	"golang.org/x/sync/errgroup"
)

// Options control a single scoring run.
type Options struct {
	Cohort        []string
	Year          int
	Normalization domain.NormalizationOptions
	Workers       int
}

// Pipeline scores a cohort: snapshot load, indicator calculation, cohort
// normalization, pillar aggregation, risk composition and ranking.
type Pipeline struct {
	source  domain.Source
	catalog *indicator.Catalog
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline reading from src and scoring with catalog.
func New(src domain.Source, catalog *indicator.Catalog, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		source:  src,
		catalog: catalog,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes one full run. It fails only on configuration or aggregation
// defects, a cancelled context, or when the cohort cannot be read; data gaps
// are imputed and audited instead.
func (p *Pipeline) Run(ctx context.Context) (*domain.Report, error) {
	start := time.Now()
	report, err := p.run(ctx)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.SetToCurrentTime()
	return report, nil
}

func (p *Pipeline) run(ctx context.Context) (*domain.Report, error) {
	if err := p.opts.Normalization.Validate(); err != nil {
		return nil, err
	}

	snap, err := snapshot.Load(ctx, p.source, snapshot.Request{
		Cohort:  p.opts.Cohort,
		Signals: p.catalog.Signals(),
		Year:    p.opts.Year,
	}, p.logger)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	audit := snap.Audit()
	for _, e := range audit {
		switch e.Kind {
		case domain.AuditExcluded:
			p.metrics.ExcludedCities.Inc()
		case domain.AuditLookupFailed:
			p.metrics.LookupFailures.Inc()
		}
	}

	cities := snap.Cities()
	p.metrics.CohortSize.Set(float64(len(cities)))
	p.logger.Info("scoring cohort",
		"cities", len(cities),
		"excluded", len(snap.Excluded()),
		"indicators", len(p.catalog.Indicators),
		"year", p.opts.Year,
	)

	raw, err := p.calculate(ctx, snap, cities)
	if err != nil {
		return nil, err
	}

	records := make([]domain.CityRecord, len(cities))
	for j, city := range cities {
		records[j] = domain.CityRecord{
			City:       city,
			Indicators: make(map[string]domain.IndicatorResult, len(p.catalog.Indicators)),
		}
	}

	for i, def := range p.catalog.Indicators {
		series := cohort.Series{Indicator: def.Name, Entries: make([]cohort.Entry, len(cities))}
		for j, city := range cities {
			series.Entries[j] = cohort.Entry{City: city.ID, Value: raw[i][j]}
		}
		res, err := cohort.Normalize(series, def.NormalizationOptions(p.opts.Normalization))
		if err != nil {
			return nil, err
		}
		audit = append(audit, p.auditNormalization(def.Name, res)...)

		imputed := make(map[string]bool, len(res.Imputations))
		for _, imp := range res.Imputations {
			imputed[imp.City] = true
		}
		for j, city := range cities {
			records[j].Indicators[def.Name] = domain.IndicatorResult{
				Raw:        raw[i][j],
				Imputed:    imputed[city.ID],
				Used:       res.Used[city.ID],
				Normalized: res.Scores[city.ID],
			}
		}
	}

	members := make(map[domain.Pillar][]string, len(domain.Pillars))
	for _, pillar := range domain.Pillars {
		members[pillar] = p.catalog.Members(pillar)
	}
	for j := range records {
		scores := make(map[string]float64, len(records[j].Indicators))
		for name, r := range records[j].Indicators {
			scores[name] = r.Normalized
		}
		pillars, err := scoring.Aggregate(members, scores)
		if err != nil {
			return nil, fmt.Errorf("city %s: %w", records[j].City.ID, err)
		}
		risk, err := scoring.Compose(pillars)
		if err != nil {
			return nil, fmt.Errorf("city %s: %w", records[j].City.ID, err)
		}
		records[j].Pillars = pillars
		records[j].Risk = risk
	}

	summary := ranking.Rank(records)
	summary.Excluded = len(snap.Excluded())

	return &domain.Report{
		RunID:       domain.RunID(p.opts.Normalization, p.opts.Year, records),
		GeneratedAt: domain.Now(),
		Year:        p.opts.Year,
		Options:     p.opts.Normalization,
		Summary:     summary,
		Cities:      records,
		Audit:       audit,
	}, nil
}

// calculate evaluates every (indicator, city) pair concurrently. Results are
// written to distinct slots of a pre-sized matrix, indexed [indicator][city].
func (p *Pipeline) calculate(ctx context.Context, snap *snapshot.Snapshot, cities []domain.City) ([][]domain.Value, error) {
	raw := make([][]domain.Value, len(p.catalog.Indicators))
	for i := range raw {
		raw[i] = make([]domain.Value, len(cities))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, def := range p.catalog.Indicators {
		for j, city := range cities {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				raw[i][j] = def.Compute(city.ID, snap)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calculate indicators: %w", err)
	}
	return raw, nil
}

func (p *Pipeline) auditNormalization(name string, res cohort.Result) []domain.AuditEntry {
	var entries []domain.AuditEntry
	for _, imp := range res.Imputations {
		v := imp.Value
		p.logger.Warn("imputed missing indicator",
			"city", imp.City,
			"indicator", name,
			"value", v,
		)
		entries = append(entries, domain.AuditEntry{
			Kind:      domain.AuditImputed,
			City:      imp.City,
			Indicator: name,
			Value:     &v,
			Reason:    imp.Reason,
		})
	}
	if n := len(res.Imputations); n > 0 {
		p.metrics.Imputations.WithLabelValues(name).Add(float64(n))
	}
	if res.Degenerate {
		p.logger.Warn("degenerate cohort, assigning midpoint", "indicator", name)
		p.metrics.DegenerateCohorts.WithLabelValues(name).Inc()
		entries = append(entries, domain.AuditEntry{
			Kind:      domain.AuditDegenerate,
			Indicator: name,
			Reason:    "all cohort values equal",
		})
	}
	return entries
}
