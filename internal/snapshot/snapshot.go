// Package snapshot reads every raw signal a run needs from a data source once,
// before scoring starts, and exposes the result as an immutable view.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
)

// Static city attributes double as socioeconomic signals. A source value
// takes precedence; the attribute fills in when the source has none.
var (
	SignalPopulation   = domain.Signal{Family: domain.FamilySocioeconomic, Name: "population"}
	SignalGDPPerCapita = domain.Signal{Family: domain.FamilySocioeconomic, Name: "gdp_per_capita"}
	SignalAreaKm2      = domain.Signal{Family: domain.FamilySocioeconomic, Name: "area_km2"}
)

// Request selects what to load.
type Request struct {
	// Cohort restricts the run to these city IDs. Empty means every city.
	Cohort []string
	// Signals are the raw signals required by the indicator catalog.
	Signals []domain.Signal
	// Year pins observations to the latest year not after it. Zero means
	// latest available.
	Year int
}

// Snapshot is the read-only input of one run.
type Snapshot struct {
	year     int
	cities   []domain.City
	excluded []domain.City
	values   map[string]map[domain.Signal]domain.Value
	audit    []domain.AuditEntry
}

// Load resolves every requested signal for every cohort city. A failed
// lookup becomes Missing and is audited. A city for which the source resolves
// no signal at all is excluded, even if static attributes would fill some.
// Failing to list cities aborts the load.
func Load(ctx context.Context, src domain.Source, req Request, logger *slog.Logger) (*Snapshot, error) {
	all, err := src.Cities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	cohort, err := selectCohort(all, req.Cohort)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		year:   req.Year,
		values: make(map[string]map[domain.Signal]domain.Value, len(cohort)),
	}
	for _, city := range cohort {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vals := make(map[domain.Signal]domain.Value, len(req.Signals))
		resolved := 0
		for _, sig := range req.Signals {
			v, err := src.Lookup(ctx, city.ID, sig, req.Year)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn("signal lookup failed", "city", city.ID, "signal", sig.String(), "error", err)
				s.audit = append(s.audit, domain.AuditEntry{
					Kind:   domain.AuditLookupFailed,
					City:   city.ID,
					Signal: sig.String(),
					Reason: err.Error(),
				})
				v = domain.Missing()
			}
			if v.IsMissing() {
				v = staticAttribute(city, sig)
			} else {
				resolved++
			}
			vals[sig] = v
		}
		if resolved == 0 && len(req.Signals) > 0 {
			logger.Warn("city excluded, no signal resolved", "city", city.ID)
			s.audit = append(s.audit, domain.AuditEntry{
				Kind:   domain.AuditExcluded,
				City:   city.ID,
				Reason: "no signal resolved",
			})
			s.excluded = append(s.excluded, city)
			continue
		}
		s.cities = append(s.cities, city)
		s.values[city.ID] = vals
	}

	if len(s.cities) == 0 {
		return nil, fmt.Errorf("%w: every cohort city was excluded", domain.ErrNoCities)
	}
	return s, nil
}

func selectCohort(all []domain.City, ids []string) ([]domain.City, error) {
	byID := make(map[string]domain.City, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	var out []domain.City
	if len(ids) == 0 {
		out = append(out, all...)
	} else {
		var unknown []string
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			c, ok := byID[id]
			if !ok {
				unknown = append(unknown, id)
				continue
			}
			out = append(out, c)
		}
		if len(unknown) > 0 {
			return nil, fmt.Errorf("%w: unknown cities %v", domain.ErrConfiguration, unknown)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNoCities
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func staticAttribute(c domain.City, sig domain.Signal) domain.Value {
	var v float64
	switch sig {
	case SignalPopulation:
		v = c.Population
	case SignalGDPPerCapita:
		v = c.GDPPerCapita
	case SignalAreaKm2:
		v = c.AreaKm2
	default:
		return domain.Missing()
	}
	if v <= 0 {
		return domain.Missing()
	}
	return domain.Of(v)
}

// Year is the requested observation year, zero for latest.
func (s *Snapshot) Year() int { return s.year }

// Cities returns the scored cohort ordered by ID.
func (s *Snapshot) Cities() []domain.City {
	return append([]domain.City(nil), s.cities...)
}

// Excluded returns the cities dropped because no signal resolved.
func (s *Snapshot) Excluded() []domain.City {
	return append([]domain.City(nil), s.excluded...)
}

// Audit returns the load-time audit entries.
func (s *Snapshot) Audit() []domain.AuditEntry {
	return append([]domain.AuditEntry(nil), s.audit...)
}

// Value returns a loaded signal. Signals that were not requested are Missing.
func (s *Snapshot) Value(cityID string, sig domain.Signal) domain.Value {
	return s.values[cityID][sig]
}
