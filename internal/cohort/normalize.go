package cohort

import (
	"fmt"
	"math"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// NeutralDefault is imputed when an indicator has no valid value anywhere in
// the cohort.
const NeutralDefault = 0.5

// Mode selects the scaling method.
type Mode string

const (
	// ModePercentile winsorizes to percentile bounds and rescales linearly.
	ModePercentile Mode = "percentile"
	// ModeRank uses the cohort percentile rank of each value.
	ModeRank Mode = "rank"
)

// Transform is applied to raw values before scaling.
type Transform string

const (
	TransformNone  Transform = "none"
	TransformLog1p Transform = "log1p"
)

// Direction states whether a higher raw value means more of what the pillar
// measures (AsIs) or less (Inverted).
type Direction string

const (
	DirectionAsIs     Direction = "as_is"
	DirectionInverted Direction = "inverted"
)

// Entry is one city's raw value in a series.
type Entry struct {
	City  string
	Value domain.Value
}

// Series is one indicator's raw values for every city of a run, in cohort
// order.
type Series struct {
	Indicator string
	Entries   []Entry
}

// Options configure a single normalization.
type Options struct {
	Mode      Mode
	Transform Transform
	Direction Direction
	domain.NormalizationOptions
}

// Validate checks the bounds and enumerations.
func (o Options) Validate() error {
	if err := o.NormalizationOptions.Validate(); err != nil {
		return err
	}
	switch o.Mode {
	case ModePercentile, ModeRank:
	default:
		return fmt.Errorf("%w: unknown normalization mode %q", domain.ErrConfiguration, o.Mode)
	}
	switch o.Transform {
	case TransformNone, TransformLog1p:
	default:
		return fmt.Errorf("%w: unknown transform %q", domain.ErrConfiguration, o.Transform)
	}
	switch o.Direction {
	case DirectionAsIs, DirectionInverted:
	default:
		return fmt.Errorf("%w: unknown direction %q", domain.ErrConfiguration, o.Direction)
	}
	return nil
}

// Imputation records a missing value replaced before scaling.
type Imputation struct {
	City   string
	Value  float64
	Reason string
}

// Result holds the normalized scores of a series keyed by city.
type Result struct {
	Scores      map[string]float64
	Used        map[string]float64 // raw value after imputation, before transform
	Imputations []Imputation
	Degenerate  bool
}

// Normalize imputes, transforms and scales a series. It returns an error only
// for invalid options.
func Normalize(s Series, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, fmt.Errorf("normalize %s: %w", s.Indicator, err)
	}

	n := len(s.Entries)
	res := Result{
		Scores: make(map[string]float64, n),
		Used:   make(map[string]float64, n),
	}
	if n == 0 {
		return res, nil
	}

	raw, imputations := impute(s.Entries)
	res.Imputations = imputations

	values := make([]float64, n)
	for i, e := range s.Entries {
		res.Used[e.City] = raw[i]
		values[i] = applyTransform(raw[i], opts.Transform)
	}

	if floats.Max(values) == floats.Min(values) {
		res.Degenerate = true
		for _, e := range s.Entries {
			res.Scores[e.City] = opts.Midpoint()
		}
		return res, nil
	}

	var unit []float64
	switch opts.Mode {
	case ModeRank:
		unit = rankScale(values)
	default:
		unit = percentileScale(values, opts.Percentile)
	}

	span := opts.Ceiling - opts.Floor
	for i, e := range s.Entries {
		score := opts.Floor + span*unit[i]
		if opts.Direction == DirectionInverted {
			score = opts.Floor + opts.Ceiling - score
		}
		res.Scores[e.City] = clamp(score, opts.Floor, opts.Ceiling)
	}
	return res, nil
}

// impute fills missing entries with the median of the valid ones.
func impute(entries []Entry) ([]float64, []Imputation) {
	valid := make([]float64, 0, len(entries))
	for _, e := range entries {
		if v, ok := e.Value.Get(); ok {
			valid = append(valid, v)
		}
	}

	fill, reason := NeutralDefault, "no valid values in cohort, neutral default"
	if len(valid) > 0 {
		fill = Median(valid)
		reason = fmt.Sprintf("cohort median of %d valid values", len(valid))
	}

	out := make([]float64, len(entries))
	var imputations []Imputation
	for i, e := range entries {
		if v, ok := e.Value.Get(); ok {
			out[i] = v
			continue
		}
		out[i] = fill
		imputations = append(imputations, Imputation{City: e.City, Value: fill, Reason: reason})
	}
	return out, imputations
}

func applyTransform(v float64, t Transform) float64 {
	if t == TransformLog1p {
		return math.Log1p(math.Max(v, 0))
	}
	return v
}

// percentileScale winsorizes to the p-th and (100−p)-th percentiles and maps
// the clipped range onto [0,1]. The caller guarantees the values are not all
// equal.
func percentileScale(values []float64, p float64) []float64 {
	lo := Quantile(values, p/100)
	hi := Quantile(values, 1-p/100)
	if hi <= lo {
		lo, hi = floats.Min(values), floats.Max(values)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (clamp(v, lo, hi) - lo) / (hi - lo)
	}
	return out
}

// rankScale maps average ranks onto [0,1].
func rankScale(values []float64) []float64 {
	ranks := averageRanks(values)
	denom := float64(len(values) - 1)
	out := make([]float64, len(values))
	for i, r := range ranks {
		out[i] = (r - 1) / denom
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
