package indicator

import (
	"fmt"
	"math"

	"github.com/couchcryptid/urban-climate-risk/internal/cohort"
	"github.com/couchcryptid/urban-climate-risk/internal/domain"
)

// Inputs resolves raw signals for a city. A snapshot satisfies it.
type Inputs interface {
	Value(cityID string, sig domain.Signal) domain.Value
}

// Definition is one leaf indicator: where it contributes, how it is
// normalized and the formula that derives it from raw signals.
type Definition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Pillar      domain.Pillar    `json:"pillar"`
	Direction   cohort.Direction `json:"direction"`
	Transform   cohort.Transform `json:"transform"`
	Mode        cohort.Mode      `json:"mode"`
	Terms       []Term           `json:"terms"`
}

// Term is weight × clamp(scale × x + offset, min, max) where x is the signal,
// optionally multiplied by Times, divided by Per and taken as absolute value.
type Term struct {
	Signal string   `json:"signal"`
	Weight float64  `json:"weight"`
	Scale  float64  `json:"scale"`
	Offset float64  `json:"offset"`
	Abs    bool     `json:"abs"`
	Times  string   `json:"times,omitempty"`
	Per    string   `json:"per,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`

	sig, times, per domain.Signal
}

func (t *Term) bind() error {
	var err error
	if t.sig, err = ParseSignal(t.Signal); err != nil {
		return err
	}
	if t.Times != "" {
		if t.times, err = ParseSignal(t.Times); err != nil {
			return err
		}
	}
	if t.Per != "" {
		if t.per, err = ParseSignal(t.Per); err != nil {
			return err
		}
	}
	if t.Min != nil && t.Max != nil && *t.Min > *t.Max {
		return fmt.Errorf("term %s: min %g exceeds max %g", t.Signal, *t.Min, *t.Max)
	}
	return nil
}

// Signals lists the raw signals the definition reads, in term order.
func (d Definition) Signals() []domain.Signal {
	var out []domain.Signal
	for _, t := range d.Terms {
		out = append(out, t.sig)
		if t.Times != "" {
			out = append(out, t.times)
		}
		if t.Per != "" {
			out = append(out, t.per)
		}
	}
	return out
}

// Compute evaluates the formula for one city. The result is Missing when any
// signal the formula reads is missing or a Per denominator is zero.
func (d Definition) Compute(cityID string, in Inputs) domain.Value {
	var sum float64
	for _, t := range d.Terms {
		v, ok := t.eval(cityID, in)
		if !ok {
			return domain.Missing()
		}
		sum += v
	}
	return domain.Of(sum)
}

func (t Term) eval(cityID string, in Inputs) (float64, bool) {
	x, ok := in.Value(cityID, t.sig).Get()
	if !ok {
		return 0, false
	}
	if t.Times != "" {
		m, ok := in.Value(cityID, t.times).Get()
		if !ok {
			return 0, false
		}
		x *= m
	}
	if t.Per != "" {
		den, ok := in.Value(cityID, t.per).Get()
		if !ok || den == 0 {
			return 0, false
		}
		x /= den
	}
	if t.Abs {
		x = math.Abs(x)
	}
	y := t.Scale*x + t.Offset
	if t.Min != nil {
		y = math.Max(y, *t.Min)
	}
	if t.Max != nil {
		y = math.Min(y, *t.Max)
	}
	return t.Weight * y, true
}
