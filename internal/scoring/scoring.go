// Package scoring turns normalized indicator scores into pillar scores and a
// composite risk.
package scoring

import (
	"fmt"
	"math"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// Aggregate averages a city's normalized scores over the members of each
// pillar. scores maps indicator name to normalized score.
func Aggregate(members map[domain.Pillar][]string, scores map[string]float64) (domain.PillarScores, error) {
	var out domain.PillarScores
	for _, p := range domain.Pillars {
		names := members[p]
		if len(names) == 0 {
			return out, fmt.Errorf("%w: pillar %s has no indicators", domain.ErrConfiguration, p)
		}
		vals := make([]float64, len(names))
		for i, name := range names {
			v, ok := scores[name]
			if !ok {
				return out, fmt.Errorf("%w: pillar %s: no score for %s", domain.ErrAggregationDefect, p, name)
			}
			vals[i] = v
		}
		out.Set(p, floats.Sum(vals)/float64(len(vals)))
	}
	return out, nil
}

// Compose returns H × E × V × (1 − AC). Every factor must lie in (0, 1]; a
// zero factor would collapse the product and can only come from a defect
// upstream.
func Compose(p domain.PillarScores) (float64, error) {
	factors := [...]struct {
		name string
		v    float64
	}{
		{"hazard", p.Hazard},
		{"exposure", p.Exposure},
		{"vulnerability", p.Vulnerability},
		{"1 - adaptive_capacity", 1 - p.AdaptiveCapacity},
	}
	risk := 1.0
	for _, f := range factors {
		if math.IsNaN(f.v) || f.v <= 0 || f.v > 1 {
			return 0, fmt.Errorf("%w: %s = %g", domain.ErrAggregationDefect, f.name, f.v)
		}
		risk *= f.v
	}
	return risk, nil
}
