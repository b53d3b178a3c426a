package sample_test

import (
	"context"
	"testing"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/couchcryptid/urban-climate-risk/internal/indicator"
	"github.com/couchcryptid/urban-climate-risk/internal/sample"
	"github.com/couchcryptid/urban-climate-risk/internal/snapshot"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, seed uint64) *snapshot.Memory {
	t.Helper()
	m := snapshot.NewMemory()
	require.NoError(t, sample.Seed(context.Background(), m, seed))
	return m
}

func TestCities(t *testing.T) {
	cities := sample.Cities()

	require.Len(t, cities, 14)
	for i := 1; i < len(cities); i++ {
		assert.Less(t, cities[i-1].ID, cities[i].ID)
	}
	for _, c := range cities {
		assert.Positive(t, c.AreaKm2, c.ID)
		assert.Positive(t, c.GDPPerCapita, c.ID)
	}
}

func TestSeed_Deterministic(t *testing.T) {
	ctx := context.Background()
	a, b := seeded(t, 7), seeded(t, 7)

	for _, c := range sample.Cities() {
		for _, s := range sample.Signals() {
			va, err := a.Lookup(ctx, c.ID, s, 0)
			require.NoError(t, err)
			vb, err := b.Lookup(ctx, c.ID, s, 0)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(va.String(), vb.String()), "%s %s", c.ID, s)
		}
	}
}

func TestSeed_Gaps(t *testing.T) {
	ctx := context.Background()
	m := seeded(t, 1)

	v, err := m.Lookup(ctx, "nurafshon", domain.Signal{Family: domain.FamilyNightlight, Name: "radiance"}, 0)
	require.NoError(t, err)
	assert.True(t, v.IsMissing())

	dist := domain.Signal{Family: domain.FamilyVegetation, Name: "distance_m"}
	latest, err := m.Lookup(ctx, "termez", dist, 0)
	require.NoError(t, err)
	pinned, err := m.Lookup(ctx, "termez", dist, 2021)
	require.NoError(t, err)
	assert.False(t, latest.IsMissing())
	assert.Equal(t, latest, pinned, "no observation after 2021")
}

func TestSeed_CoversCatalog(t *testing.T) {
	catalog, err := indicator.Default()
	require.NoError(t, err)

	provided := map[domain.Signal]bool{
		snapshot.SignalPopulation: true,
		snapshot.SignalAreaKm2:    true,
	}
	for _, s := range sample.Signals() {
		provided[s] = true
	}
	for _, s := range catalog.Signals() {
		assert.True(t, provided[s], "catalog reads %s which the sample never writes", s)
	}
}
