package cohort

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2, 5}

	tests := []struct {
		name string
		q    float64
		want float64
	}{
		{"min", 0, 1},
		{"max", 1, 5},
		{"median odd", 0.5, 3},
		{"q25", 0.25, 2},
		{"interpolated", 0.1, 1.4},
		{"below range", -0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(values, tt.q), 1e-12)
		})
	}

	assert.Equal(t, []float64{4, 1, 3, 2, 5}, values, "input must not be reordered")
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func TestMedian_EvenCount(t *testing.T) {
	assert.InDelta(t, 2.5, Median([]float64{4, 1, 2, 3}), 1e-12)
}

func TestAverageRanks(t *testing.T) {
	ranks := averageRanks([]float64{10, 30, 20, 30})
	assert.Equal(t, []float64{1, 3.5, 2, 3.5}, ranks)
}
