package domain

import "errors"

var (
	// ErrConfiguration marks fatal setup problems: an empty pillar, invalid
	// normalization bounds, or an invalid indicator catalog.
	ErrConfiguration = errors.New("configuration error")

	// ErrAggregationDefect marks a pillar score of exactly zero or outside
	// [0,1]. The normalizer floor makes this unreachable with a valid
	// configuration.
	ErrAggregationDefect = errors.New("aggregation defect")

	// ErrNoCities is returned when the cohort is empty after exclusions.
	ErrNoCities = errors.New("no cities in cohort")
)
