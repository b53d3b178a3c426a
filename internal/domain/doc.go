// Package domain models the inputs and outputs of an urban climate risk run.
//
// # Risk Model
//
// Each city in a cohort is scored on four pillars and combined
// multiplicatively:
//
//	Risk = Hazard × Exposure × Vulnerability × (1 − AdaptiveCapacity)
//
// Hazard (H) is the intensity of the climate-physical stressor, Exposure (E)
// the magnitude of people and assets subject to it, Vulnerability (V) their
// susceptibility to harm, and Adaptive Capacity (AC) the city's ability to
// absorb or reduce it. A product of four sub-unity numbers is small: a cohort
// typically lands in roughly [0.01, 0.15], so categories are always derived
// from the cohort's own distribution and never from fixed cut points.
//
// # Signals
//
// Raw inputs arrive from upstream producers (satellite composites, statistical
// tables, air-quality stations) as scalar signals addressed by family and
// name, e.g. temperature/suhi_intensity or socioeconomic/gdp_per_capita.
// Units are those of the producer:
//
//	suhi_intensity          °C, night-time urban minus rural surface temperature
//	temperature_trend       °C per year
//	summer_max_temp         °C
//	precipitation_trend     fraction per year
//	built_area_pct          percent of the analysis buffer
//	nightlight_radiance     nW·cm⁻²·sr⁻¹ (VIIRS annual composite, urban core mean)
//	pm25_annual, no2_annual µg/m³
//	vegetation_distance_m   metres to the nearest vegetation patch, city mean
//	*_access, *_share       fractions in [0,1]
//
// # Missing Values
//
// An absent signal is represented by [Missing], never by zero. Substituting a
// boundary value silently biases the cohort distribution: a small city whose
// indicator was always absent used to be scored at 0 and pushed to an
// extreme. Missing values are imputed by the cohort normalizer and every
// imputation is recorded as an [AuditEntry].
//
// # Determinism
//
// A run is a pure function of the snapshot and the options. Run IDs are
// SHA-256 digests of the cohort inputs so identical inputs yield identical
// IDs and artifacts can be diffed across runs. See [RunID].
package domain
