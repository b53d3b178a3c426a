package main

import (
	"math"
	"regexp"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/indicator"
	"github.com/couchcryptid/urban-climate-risk/internal/ranking"
	"gonum.org/v1/gonum/floats"
)

const tolerance = 1e-9

var runIDPattern = regexp.MustCompile(`^run-[0-9a-f]{16}$`)

func validate(r *domain.Report, catalog *indicator.Catalog) []*phase {
	return []*phase{
		validateHeader(r),
		validateIndicators(r, catalog),
		validateScoreBounds(r),
		validateRiskProduct(r),
		validateRanks(r),
		validateCategories(r),
		validatePriority(r),
		validateAudit(r),
	}
}

func validateHeader(r *domain.Report) *phase {
	p := &phase{name: "Header & options"}
	if !runIDPattern.MatchString(r.RunID) {
		p.errorf("run_id %q does not match %s", r.RunID, runIDPattern)
	}
	if r.GeneratedAt.IsZero() {
		p.errorf("generated_at is zero")
	}
	if err := r.Options.Validate(); err != nil {
		p.errorf("options: %v", err)
	}
	if len(r.Cities) == 0 {
		p.errorf("no cities in report")
	}
	if r.Summary.Size != len(r.Cities) {
		p.errorf("cohort_summary.size = %d, want %d", r.Summary.Size, len(r.Cities))
	}
	seen := make(map[string]bool, len(r.Cities))
	for _, c := range r.Cities {
		if seen[c.City.ID] {
			p.errorf("duplicate city %q", c.City.ID)
		}
		seen[c.City.ID] = true
	}
	return p
}

func validateIndicators(r *domain.Report, catalog *indicator.Catalog) *phase {
	p := &phase{name: "Indicators match catalog"}
	for _, c := range r.Cities {
		for name := range c.Indicators {
			if _, ok := catalog.Lookup(name); !ok {
				p.errorf("%s: indicator %q not in catalog", c.City.ID, name)
			}
		}
		for _, def := range catalog.Indicators {
			if _, ok := c.Indicators[def.Name]; !ok {
				p.errorf("%s: missing indicator %q (%s pillar)", c.City.ID, def.Name, def.Pillar)
			}
		}
	}
	return p
}

func validateScoreBounds(r *domain.Report) *phase {
	p := &phase{name: "Normalized scores within [floor, ceiling]"}
	lo, hi := r.Options.Floor-tolerance, r.Options.Ceiling+tolerance
	for _, c := range r.Cities {
		for name, ind := range c.Indicators {
			if ind.Normalized < lo || ind.Normalized > hi || math.IsNaN(ind.Normalized) {
				p.errorf("%s/%s: normalized %g outside [%g, %g]",
					c.City.ID, name, ind.Normalized, r.Options.Floor, r.Options.Ceiling)
			}
			if v, ok := ind.Raw.Get(); ok && v != ind.Used {
				p.errorf("%s/%s: used %g differs from raw %g", c.City.ID, name, ind.Used, v)
			}
		}
		for _, pillar := range domain.Pillars {
			v := c.Pillars.Get(pillar)
			if v < lo || v > hi {
				p.errorf("%s: pillar %s = %g outside [%g, %g]",
					c.City.ID, pillar, v, r.Options.Floor, r.Options.Ceiling)
			}
		}
	}
	return p
}

func validateRiskProduct(r *domain.Report) *phase {
	p := &phase{name: "Risk = H x E x V x (1 - AC)"}
	for _, c := range r.Cities {
		ps := c.Pillars
		want := ps.Hazard * ps.Exposure * ps.Vulnerability * (1 - ps.AdaptiveCapacity)
		if math.Abs(c.Risk-want) > tolerance {
			p.errorf("%s: risk %g, product of pillars %g", c.City.ID, c.Risk, want)
		}
		if c.Risk <= 0 || c.Risk >= 1 {
			p.errorf("%s: risk %g outside (0, 1)", c.City.ID, c.Risk)
		}
	}
	return p
}

func validateRanks(r *domain.Report) *phase {
	p := &phase{name: "Ranks are permutations"}
	n := len(r.Cities)
	riskSeen := make([]bool, n+1)
	acSeen := make([]bool, n+1)
	byRiskRank := make([]domain.CityRecord, n+1)
	for _, c := range r.Cities {
		if c.RiskRank < 1 || c.RiskRank > n || riskSeen[c.RiskRank] {
			p.errorf("%s: risk_rank %d invalid or repeated", c.City.ID, c.RiskRank)
		} else {
			riskSeen[c.RiskRank] = true
			byRiskRank[c.RiskRank] = c
		}
		if c.ACRank < 1 || c.ACRank > n || acSeen[c.ACRank] {
			p.errorf("%s: adaptive_capacity_rank %d invalid or repeated", c.City.ID, c.ACRank)
		} else {
			acSeen[c.ACRank] = true
		}
	}
	if !p.passed() {
		return p
	}
	for rank := 2; rank <= n; rank++ {
		prev, cur := byRiskRank[rank-1], byRiskRank[rank]
		if cur.Risk > prev.Risk {
			p.errorf("risk_rank %d (%s, %g) has higher risk than rank %d (%s, %g)",
				rank, cur.City.ID, cur.Risk, rank-1, prev.City.ID, prev.Risk)
		}
	}
	return p
}

func validateCategories(r *domain.Report) *phase {
	p := &phase{name: "Risk categories"}
	if len(r.Cities) == 0 {
		return p
	}
	risks := make([]float64, len(r.Cities))
	counts := make(map[domain.Category]int)
	for i, c := range r.Cities {
		risks[i] = c.Risk
		counts[c.Category]++
		switch c.Category {
		case domain.CategoryLow, domain.CategoryMedium, domain.CategoryHigh, domain.CategoryCritical:
		default:
			p.errorf("%s: unknown category %q", c.City.ID, c.Category)
		}
	}
	if floats.Max(risks) > floats.Min(risks) {
		if counts[domain.CategoryCritical] == 0 {
			p.errorf("cohort has risk spread but no CRITICAL city")
		}
		if counts[domain.CategoryLow] == 0 {
			p.errorf("cohort has risk spread but no LOW city")
		}
	}
	return p
}

func validatePriority(r *domain.Report) *phase {
	p := &phase{name: "Priority scores"}
	n := len(r.Cities)
	best := 0.0
	for _, c := range r.Cities {
		want := ranking.Priority(c.RiskRank, c.ACRank, n)
		if math.Abs(c.Priority-want) > tolerance {
			p.errorf("%s: priority %g, ranks imply %g", c.City.ID, c.Priority, want)
		}
		best = math.Max(best, c.Priority)
	}
	for _, c := range r.Cities {
		if c.RiskRank == 1 && c.ACRank == 1 && c.Priority < best {
			p.errorf("%s: first in both rankings but priority %g below maximum %g", c.City.ID, c.Priority, best)
		}
	}
	return p
}

func validateAudit(r *domain.Report) *phase {
	p := &phase{name: "Audit consistency"}
	imputed := make(map[[2]string]bool)
	excluded := 0
	for _, e := range r.Audit {
		switch e.Kind {
		case domain.AuditImputed:
			imputed[[2]string{e.City, e.Indicator}] = true
		case domain.AuditExcluded:
			excluded++
		case domain.AuditDegenerate, domain.AuditLookupFailed:
		default:
			p.errorf("unknown audit kind %q", e.Kind)
		}
	}
	if excluded != r.Summary.Excluded {
		p.errorf("%d excluded audit entries, summary reports %d", excluded, r.Summary.Excluded)
	}
	for _, c := range r.Cities {
		for name, ind := range c.Indicators {
			audited := imputed[[2]string{c.City.ID, name}]
			if ind.Imputed != audited {
				p.errorf("%s/%s: imputed=%t but audit entry present=%t", c.City.ID, name, ind.Imputed, audited)
			}
			if ind.Imputed && !ind.Raw.IsMissing() {
				p.errorf("%s/%s: imputed but raw value present", c.City.ID, name)
			}
		}
	}
	return p
}
