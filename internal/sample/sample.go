// Package sample generates a deterministic 14-city cohort of Uzbek cities
// with synthetic but plausible raw signals. It backs the genmock command and
// end-to-end tests.
package sample

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
)

// FirstYear and LastYear bound the generated observation years.
const (
	FirstYear = 2020
	LastYear  = 2024
)

// Store receives generated data. The SQLite store and the in-memory source
// both satisfy it.
type Store interface {
	UpsertCity(ctx context.Context, c domain.City) error
	PutObservation(ctx context.Context, cityID string, sig domain.Signal, year int, v domain.Value) error
}

var cities = []domain.City{
	{ID: "andijan", Name: "Andijan", Population: 480_800, GDPPerCapita: 1_650, BufferM: 12_000},
	{ID: "bukhara", Name: "Bukhara", Population: 269_500, GDPPerCapita: 2_300, BufferM: 10_000},
	{ID: "fergana", Name: "Fergana", Population: 321_800, GDPPerCapita: 1_900, BufferM: 12_000},
	{ID: "gulistan", Name: "Gulistan", Population: 77_300, GDPPerCapita: 1_350, BufferM: 8_000},
	{ID: "jizzakh", Name: "Jizzakh", Population: 195_800, GDPPerCapita: 1_400, BufferM: 8_000},
	{ID: "namangan", Name: "Namangan", Population: 696_500, GDPPerCapita: 1_500, BufferM: 12_000},
	{ID: "navoiy", Name: "Navoiy", Population: 161_300, GDPPerCapita: 5_800, BufferM: 10_000},
	{ID: "nukus", Name: "Nukus", Population: 339_200, GDPPerCapita: 1_450, BufferM: 10_000},
	{ID: "nurafshon", Name: "Nurafshon", Population: 56_200, GDPPerCapita: 2_100, BufferM: 8_000},
	{ID: "qarshi", Name: "Qarshi", Population: 295_600, GDPPerCapita: 2_000, BufferM: 8_000},
	{ID: "samarkand", Name: "Samarkand", Population: 585_200, GDPPerCapita: 1_800, BufferM: 12_000},
	{ID: "tashkent", Name: "Tashkent", Population: 3_058_400, GDPPerCapita: 3_900, BufferM: 15_000},
	{ID: "termez", Name: "Termez", Population: 201_600, GDPPerCapita: 1_550, BufferM: 8_000},
	{ID: "urgench", Name: "Urgench", Population: 153_100, GDPPerCapita: 1_700, BufferM: 10_000},
}

// Cities returns the sample cohort, ordered by ID. Area is the analysis
// buffer disc.
func Cities() []domain.City {
	out := make([]domain.City, len(cities))
	for i, c := range cities {
		r := c.BufferM / 1000
		c.AreaKm2 = math.Round(math.Pi*r*r*10) / 10
		out[i] = c
	}
	return out
}

type signalRange struct {
	sig    domain.Signal
	lo, hi float64
	drift  float64 // per-year change as a fraction of the range
}

func sig(f domain.Family, name string) domain.Signal {
	return domain.Signal{Family: f, Name: name}
}

var ranges = []signalRange{
	{sig(domain.FamilyTemperature, "suhi_intensity"), 0.5, 4.0, 0.02},
	{sig(domain.FamilyTemperature, "temperature_trend"), 0.01, 0.08, 0},
	{sig(domain.FamilyTemperature, "summer_max_temp"), 36, 46, 0.01},
	{sig(domain.FamilyPrecipitation, "precipitation_trend"), -0.03, 0.03, 0},
	{sig(domain.FamilyPrecipitation, "drought_frequency"), 0.1, 0.6, 0.01},
	{sig(domain.FamilyPrecipitation, "aridity_index"), 0.05, 0.4, -0.01},
	{sig(domain.FamilyLandCover, "built_area_pct"), 20, 75, 0.02},
	{sig(domain.FamilyLandCover, "bare_soil_pct"), 5, 45, 0},
	{sig(domain.FamilyLandCover, "green_area_pct"), 3, 25, -0.01},
	{sig(domain.FamilyAirQuality, "aerosol_optical_depth"), 0.2, 0.7, 0},
	{sig(domain.FamilyAirQuality, "pm25_annual"), 20, 60, 0.01},
	{sig(domain.FamilyAirQuality, "no2_annual"), 10, 45, 0.01},
	{sig(domain.FamilyAirQuality, "pm25_exceedance_share"), 0.3, 0.95, 0},
	{sig(domain.FamilyAirQuality, "pm25_trend"), -1.5, 1.0, 0},
	{sig(domain.FamilyVegetation, "vegetation_trend"), -0.02, 0.02, 0},
	{sig(domain.FamilyVegetation, "patch_density"), 0.1, 0.9, 0.01},
	{sig(domain.FamilyVegetation, "largest_patch_share"), 0.05, 0.6, -0.01},
	{sig(domain.FamilyVegetation, "distance_m"), 200, 1800, 0.01},
	{sig(domain.FamilyInfrastructure, "school_access"), 0.4, 0.95, 0.01},
	{sig(domain.FamilyInfrastructure, "hospital_access"), 0.3, 0.9, 0.01},
	{sig(domain.FamilyWater, "piped_access"), 0.5, 0.98, 0.01},
	{sig(domain.FamilyWater, "surface_water_trend"), -0.05, 0.03, 0},
}

// gaps lists signals a producer never delivered for a city. The last year
// present is given; zero means the signal is absent for every year.
var gaps = map[string]map[domain.Signal]int{
	"nurafshon": {
		sig(domain.FamilyNightlight, "radiance"):   0,
		sig(domain.FamilyAirQuality, "no2_annual"): 0,
	},
	"gulistan": {
		sig(domain.FamilyInfrastructure, "hospital_access"): 0,
	},
	"termez": {
		sig(domain.FamilyVegetation, "distance_m"): 2021,
	},
}

// Signals returns every signal the generator writes.
func Signals() []domain.Signal {
	out := make([]domain.Signal, 0, len(ranges)+2)
	for _, r := range ranges {
		out = append(out, r.sig)
	}
	return append(out,
		sig(domain.FamilyNightlight, "radiance"),
		sig(domain.FamilySocioeconomic, "gdp_per_capita"),
	)
}

// Seed writes the sample cohort into store. The same seed always produces the
// same data.
func Seed(ctx context.Context, store Store, seed uint64) error {
	all := Cities()
	minPop, maxPop := math.Inf(1), math.Inf(-1)
	for _, c := range all {
		minPop = math.Min(minPop, c.Population)
		maxPop = math.Max(maxPop, c.Population)
	}

	for _, c := range all {
		if err := store.UpsertCity(ctx, c); err != nil {
			return fmt.Errorf("upsert city %s: %w", c.ID, err)
		}
		rng := rand.New(rand.NewPCG(seed, cityHash(c.ID)))

		put := func(s domain.Signal, year int, v float64) error {
			if last, ok := gaps[c.ID][s]; ok && (last == 0 || year > last) {
				return nil
			}
			if err := store.PutObservation(ctx, c.ID, s, year, domain.Of(round(v))); err != nil {
				return fmt.Errorf("put %s %s %d: %w", c.ID, s, year, err)
			}
			return nil
		}

		for _, r := range ranges {
			base := r.lo + rng.Float64()*(r.hi-r.lo)
			for year := FirstYear; year <= LastYear; year++ {
				v := base + float64(year-FirstYear)*r.drift*(r.hi-r.lo)
				if err := put(r.sig, year, clamp(v, r.lo, r.hi)); err != nil {
					return err
				}
			}
		}

		// Night lights follow city size on a log scale.
		size := (math.Log(c.Population) - math.Log(minPop)) / (math.Log(maxPop) - math.Log(minPop))
		radiance := 2 + 38*size + rng.Float64()*4
		gdp := c.GDPPerCapita
		for year := FirstYear; year <= LastYear; year++ {
			growth := math.Pow(1.05, float64(year-LastYear))
			if err := put(sig(domain.FamilyNightlight, "radiance"), year, radiance*growth); err != nil {
				return err
			}
			if err := put(sig(domain.FamilySocioeconomic, "gdp_per_capita"), year, gdp*growth); err != nil {
				return err
			}
		}
	}
	return nil
}

func cityHash(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id)) //nolint:errcheck // hash writes never fail
	return h.Sum64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
