package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	t.Run("zero value is missing", func(t *testing.T) {
		var v Value
		assert.True(t, v.IsMissing())
		_, ok := v.Get()
		assert.False(t, ok)
	})

	t.Run("present value", func(t *testing.T) {
		v := Of(0)
		assert.False(t, v.IsMissing(), "zero is a real value, not missing")
		assert.Equal(t, 0.0, v.Float())
	})

	t.Run("non-finite is missing", func(t *testing.T) {
		assert.True(t, Of(math.NaN()).IsMissing())
		assert.True(t, Of(math.Inf(1)).IsMissing())
	})

	t.Run("float on missing panics", func(t *testing.T) {
		assert.Panics(t, func() { Missing().Float() })
	})

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "missing", Missing().String())
		assert.Equal(t, "1.25", Of(1.25).String())
	})
}

func TestValue_JSON(t *testing.T) {
	type wrapper struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}

	data, err := json.Marshal(wrapper{A: Of(2.5), B: Missing()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2.5,"b":null}`, string(data))

	var got wrapper
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2.5, got.A.Float())
	assert.True(t, got.B.IsMissing())
}
