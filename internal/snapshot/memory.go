package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
)

type memoryKey struct {
	city string
	sig  domain.Signal
}

// Memory is an in-process Source, used by tests and by callers that already
// hold their raw values in memory.
type Memory struct {
	mu     sync.RWMutex
	cities map[string]domain.City
	obs    map[memoryKey]map[int]domain.Value
}

// NewMemory creates an empty Memory source.
func NewMemory() *Memory {
	return &Memory{
		cities: make(map[string]domain.City),
		obs:    make(map[memoryKey]map[int]domain.Value),
	}
}

// AddCity registers or replaces a city.
func (m *Memory) AddCity(c domain.City) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cities[c.ID] = c
}

// Set stores an observation for a city, signal and year.
func (m *Memory) Set(cityID string, sig domain.Signal, year int, v domain.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memoryKey{cityID, sig}
	if m.obs[k] == nil {
		m.obs[k] = make(map[int]domain.Value)
	}
	m.obs[k][year] = v
}

// UpsertCity adds c to the source. It never fails.
func (m *Memory) UpsertCity(_ context.Context, c domain.City) error {
	m.AddCity(c)
	return nil
}

// PutObservation stores an observation. It never fails.
func (m *Memory) PutObservation(_ context.Context, cityID string, sig domain.Signal, year int, v domain.Value) error {
	m.Set(cityID, sig, year, v)
	return nil
}

// Cities implements domain.Source.
func (m *Memory) Cities(_ context.Context) ([]domain.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.City, 0, len(m.cities))
	for _, c := range m.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Lookup implements domain.Source. It returns the observation of the latest
// year not after the requested one.
func (m *Memory) Lookup(_ context.Context, cityID string, sig domain.Signal, year int) (domain.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	best, found := 0, false
	for y := range m.obs[memoryKey{cityID, sig}] {
		if year != 0 && y > year {
			continue
		}
		if !found || y > best {
			best, found = y, true
		}
	}
	if !found {
		return domain.Missing(), nil
	}
	return m.obs[memoryKey{cityID, sig}][best], nil
}
