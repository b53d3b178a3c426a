package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Category is an empirical risk class relative to the current cohort.
type Category string

const (
	CategoryLow      Category = "LOW"
	CategoryMedium   Category = "MEDIUM"
	CategoryHigh     Category = "HIGH"
	CategoryCritical Category = "CRITICAL"
)

// NormalizationOptions are the cohort-wide scaling parameters of a run.
type NormalizationOptions struct {
	Floor      float64 `json:"floor"`
	Ceiling    float64 `json:"ceiling"`
	Percentile float64 `json:"percentile"`
}

// DefaultNormalization returns floor 0.05, ceiling 0.95 and the 5th/95th
// percentile bounds.
func DefaultNormalization() NormalizationOptions {
	return NormalizationOptions{Floor: 0.05, Ceiling: 0.95, Percentile: 5}
}

// Validate rejects bounds that would allow a normalized score of exactly 0 or
// 1, or percentile bounds that cross.
func (o NormalizationOptions) Validate() error {
	if !(o.Floor > 0 && o.Floor < o.Ceiling && o.Ceiling < 1) {
		return fmt.Errorf("%w: need 0 < floor < ceiling < 1, got floor=%g ceiling=%g",
			ErrConfiguration, o.Floor, o.Ceiling)
	}
	if o.Percentile < 0 || o.Percentile >= 50 {
		return fmt.Errorf("%w: percentile must be in [0, 50), got %g", ErrConfiguration, o.Percentile)
	}
	return nil
}

// Midpoint is the score assigned to every city of a degenerate cohort.
func (o NormalizationOptions) Midpoint() float64 {
	return (o.Floor + o.Ceiling) / 2
}

// IndicatorResult is one indicator's trail for a city, from raw to normalized.
type IndicatorResult struct {
	Raw        Value   `json:"raw"`
	Imputed    bool    `json:"imputed"`
	Used       float64 `json:"used"`
	Normalized float64 `json:"normalized"`
}

// PillarScores holds the four pillar means for a city.
type PillarScores struct {
	Hazard           float64 `json:"hazard"`
	Exposure         float64 `json:"exposure"`
	Vulnerability    float64 `json:"vulnerability"`
	AdaptiveCapacity float64 `json:"adaptive_capacity"`
}

// Get returns the score of a pillar.
func (p PillarScores) Get(pillar Pillar) float64 {
	switch pillar {
	case PillarHazard:
		return p.Hazard
	case PillarExposure:
		return p.Exposure
	case PillarVulnerability:
		return p.Vulnerability
	case PillarAdaptiveCapacity:
		return p.AdaptiveCapacity
	default:
		return 0
	}
}

// Set assigns the score of a pillar.
func (p *PillarScores) Set(pillar Pillar, v float64) {
	switch pillar {
	case PillarHazard:
		p.Hazard = v
	case PillarExposure:
		p.Exposure = v
	case PillarVulnerability:
		p.Vulnerability = v
	case PillarAdaptiveCapacity:
		p.AdaptiveCapacity = v
	}
}

// CityRecord is the per-city output of a run. JSON field names are stable
// across runs so artifacts can be diffed.
type CityRecord struct {
	City         City                       `json:"city"`
	Indicators   map[string]IndicatorResult `json:"indicators"`
	Pillars      PillarScores               `json:"pillars"`
	Risk         float64                    `json:"risk_score"`
	RiskRank     int                        `json:"risk_rank"`
	ACRank       int                        `json:"adaptive_capacity_rank"`
	Category     Category                   `json:"risk_category"`
	Priority     float64                    `json:"priority_score"`
	Adaptability float64                    `json:"adaptability_score"`
}

// Distribution is a median and interquartile summary of a cohort metric.
type Distribution struct {
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// CohortSummary describes the cohort-level distribution of the outputs.
type CohortSummary struct {
	Size             int          `json:"size"`
	Excluded         int          `json:"excluded"`
	Risk             Distribution `json:"risk"`
	AdaptiveCapacity Distribution `json:"adaptive_capacity"`
	Priority         Distribution `json:"priority"`
}

// Report is the complete output artifact of one run.
type Report struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Year        int                  `json:"year"`
	Options     NormalizationOptions `json:"options"`
	Summary     CohortSummary        `json:"cohort_summary"`
	Cities      []CityRecord         `json:"cities"`
	Audit       []AuditEntry         `json:"audit"`
}

// RunID derives a deterministic identifier from the scored inputs: the same
// cohort, raw values and options always produce the same ID.
func RunID(opts NormalizationOptions, year int, records []CityRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%g|%g|%g|%d", opts.Floor, opts.Ceiling, opts.Percentile, year)
	for _, rec := range records {
		fmt.Fprintf(&b, "|%s", rec.City.ID)
		names := make([]string, 0, len(rec.Indicators))
		for name := range rec.Indicators {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, ";%s=%s", name, rec.Indicators[name].Raw)
		}
	}
	hash := sha256.Sum256([]byte(b.String()))
	return "run-" + hex.EncodeToString(hash[:8])
}
