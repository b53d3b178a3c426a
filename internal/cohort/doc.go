// Package cohort converts one indicator's raw values across every city of a
// run into comparable scores in [floor, ceiling].
//
// Normalization is the only step of a run that needs cross-city state, so it
// operates on an explicit [Series] value rather than on any cached state:
// rerunning a partial cohort can never observe values from an earlier run.
//
// Steps, in order:
//
//  1. Impute missing values with the median of the valid raw values, or with
//     0.5 when none is valid. Each imputation is returned to the caller.
//  2. Apply the optional log1p transform for heavy-tailed signals.
//  3. Scale: winsorize to the p-th and (100−p)-th percentiles and rescale
//     linearly ([ModePercentile]), or use the average-rank percentile
//     ([ModeRank]).
//  4. Invert when a higher raw value means a better outcome for the pillar.
//
// A cohort whose transformed values are all equal carries no information and
// every city gets the midpoint (floor+ceiling)/2.
//
// Small cohorts need care with p: with fourteen cities p=2 sits below the
// second order statistic, so the bounds collapse to min/max and the most
// extreme city is pegged to the ceiling. The default p=5 keeps one
// interpolation step inside the tails.
package cohort
