// Package ranking orders a scored cohort and derives the relative outputs:
// ranks, empirical risk categories, intervention priority and the cohort
// summary. Everything here is relative to the cohort being ranked.
package ranking

import (
	"sort"

	"github.com/couchcryptid/urban-climate-risk/internal/cohort"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// Adaptability weights, 0.6·AC + 0.4·(1 − V).
const (
	adaptabilityCapacityWeight      = 0.6
	adaptabilityVulnerabilityWeight = 0.4
)

// Rank fills the rank, category, priority and adaptability fields of every
// record in place and returns the cohort summary. Records must already carry
// their pillar scores and risk.
func Rank(records []domain.CityRecord) domain.CohortSummary {
	n := len(records)
	summary := domain.CohortSummary{Size: n}
	if n == 0 {
		return summary
	}

	riskOrder := order(records, func(a, b domain.CityRecord) bool { return a.Risk > b.Risk })
	for pos, i := range riskOrder {
		records[i].RiskRank = pos + 1
	}
	acOrder := order(records, func(a, b domain.CityRecord) bool {
		return a.Pillars.AdaptiveCapacity < b.Pillars.AdaptiveCapacity
	})
	for pos, i := range acOrder {
		records[i].ACRank = pos + 1
	}

	risks := make([]float64, n)
	caps := make([]float64, n)
	for i, r := range records {
		risks[i] = r.Risk
		caps[i] = r.Pillars.AdaptiveCapacity
	}
	q := quartiles(risks)
	lowest := floats.Min(risks)

	priorities := make([]float64, n)
	for i := range records {
		rec := &records[i]
		rec.Category = categorize(rec.Risk, q, lowest)
		rec.Priority = Priority(rec.RiskRank, rec.ACRank, n)
		rec.Adaptability = adaptabilityCapacityWeight*rec.Pillars.AdaptiveCapacity +
			adaptabilityVulnerabilityWeight*(1-rec.Pillars.Vulnerability)
		priorities[i] = rec.Priority
	}

	summary.Risk = q
	summary.AdaptiveCapacity = quartiles(caps)
	summary.Priority = quartiles(priorities)
	return summary
}

// Priority combines a risk rank and an adaptive-capacity rank (both 1 = most
// in need) into a score in (0, 1]. Rank 1 in both yields exactly 1.
func Priority(riskRank, acRank, n int) float64 {
	fn := float64(n)
	riskPart := float64(n-riskRank+1) / fn
	acPart := float64(n-acRank+1) / fn
	return (riskPart + acPart) / 2
}

// order returns record indices sorted by less, ties broken by city ID.
func order(records []domain.CityRecord, less func(a, b domain.CityRecord) bool) []int {
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		a, b := records[idx[x]], records[idx[y]]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.City.ID < b.City.ID
	})
	return idx
}

func quartiles(values []float64) domain.Distribution {
	return domain.Distribution{
		Q25:    cohort.Quantile(values, 0.25),
		Median: cohort.Quantile(values, 0.5),
		Q75:    cohort.Quantile(values, 0.75),
	}
}

// categorize assigns the empirical class. CRITICAL requires r > lowest so a
// cohort with no spread is LOW throughout.
func categorize(r float64, q domain.Distribution, lowest float64) domain.Category {
	switch {
	case r >= q.Q75 && r > lowest:
		return domain.CategoryCritical
	case r <= q.Q25:
		return domain.CategoryLow
	case r <= q.Median:
		return domain.CategoryMedium
	default:
		return domain.CategoryHigh
	}
}
