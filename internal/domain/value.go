package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a raw scalar that may be explicitly missing. The zero Value is
// Missing.
type Value struct {
	v  float64
	ok bool
}

// Missing returns the absent Value.
func Missing() Value { return Value{} }

// Of wraps a present scalar. Non-finite inputs are treated as missing.
func Of(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Get returns the scalar and whether it is present.
func (x Value) Get() (float64, bool) { return x.v, x.ok }

// IsMissing reports whether the value is absent.
func (x Value) IsMissing() bool { return !x.ok }

// Float returns the scalar. It panics on a missing value so that an absent
// input can never silently behave as zero.
func (x Value) Float() float64 {
	if !x.ok {
		panic("domain: Float called on missing value")
	}
	return x.v
}

func (x Value) String() string {
	if !x.ok {
		return "missing"
	}
	return strconv.FormatFloat(x.v, 'g', -1, 64)
}

// MarshalJSON encodes a missing value as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON decodes null as missing.
func (x *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*x = Missing()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*x = Of(f)
	return nil
}
