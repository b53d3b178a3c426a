package domain

import "context"

// City is a cohort member with its static attributes. Cities are loaded once
// per run and never mutated during scoring.
type City struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Population   float64 `json:"population"`
	GDPPerCapita float64 `json:"gdp_per_capita_usd"`
	AreaKm2      float64 `json:"area_km2"`
	BufferM      float64 `json:"buffer_m"`
}

// Family groups raw signals by upstream producer.
type Family string

const (
	FamilyTemperature    Family = "temperature"
	FamilyPrecipitation  Family = "precipitation"
	FamilyLandCover      Family = "land_cover"
	FamilyVegetation     Family = "vegetation"
	FamilyNightlight     Family = "nightlight"
	FamilySocioeconomic  Family = "socioeconomic"
	FamilyAirQuality     Family = "air_quality"
	FamilyInfrastructure Family = "infrastructure"
	FamilyWater          Family = "water"
)

// Families lists every known signal family.
var Families = []Family{
	FamilyTemperature,
	FamilyPrecipitation,
	FamilyLandCover,
	FamilyVegetation,
	FamilyNightlight,
	FamilySocioeconomic,
	FamilyAirQuality,
	FamilyInfrastructure,
	FamilyWater,
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	for _, known := range Families {
		if f == known {
			return true
		}
	}
	return false
}

// Signal addresses one raw input, e.g. {temperature, suhi_intensity}.
type Signal struct {
	Family Family `json:"family"`
	Name   string `json:"name"`
}

func (s Signal) String() string { return string(s.Family) + "/" + s.Name }

// Source is the data access facade. It is consumed once per run to build an
// immutable snapshot; scoring never calls it directly.
type Source interface {
	// Cities lists every city known to the source, ordered by ID.
	Cities(ctx context.Context) ([]City, error)

	// Lookup returns the value of a signal for a city. Year 0 selects the
	// latest available year. An unavailable value is Missing with a nil error;
	// an error means the lookup itself failed.
	Lookup(ctx context.Context, cityID string, sig Signal, year int) (Value, error)
}

// Pillar is one of the four H-E-V-AC components.
type Pillar string

const (
	PillarHazard           Pillar = "hazard"
	PillarExposure         Pillar = "exposure"
	PillarVulnerability    Pillar = "vulnerability"
	PillarAdaptiveCapacity Pillar = "adaptive_capacity"
)

// Pillars lists the pillars in composition order.
var Pillars = []Pillar{PillarHazard, PillarExposure, PillarVulnerability, PillarAdaptiveCapacity}
