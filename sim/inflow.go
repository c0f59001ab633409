package sim

import (
	"math/rand"
)

// InflowProfile supplies the boundary inflow (rainfall, upstream catchment)
// added to one component's inflow each tick. Profiles must be deterministic:
// the same profile asked the same sequence of times yields the same values,
// so runs stay reproducible.
type InflowProfile interface {
	Rate(t float64) float64
}

// ConstantInflow is a fixed boundary inflow.
type ConstantInflow struct {
	Value float64
}

func (c ConstantInflow) Rate(t float64) float64 { return c.Value }

// PulseInflow returns Peak inside [Start, End) and Base elsewhere. Useful
// for flood-event scenarios.
type PulseInflow struct {
	Base  float64
	Peak  float64
	Start float64
	End   float64
}

func (p PulseInflow) Rate(t float64) float64 {
	if t >= p.Start && t < p.End {
		return p.Peak
	}
	return p.Base
}

// RandomWalkInflow is a seeded bounded random walk around Base. Determinism
// comes from the seed: two profiles with equal parameters produce identical
// sequences. The harness resets the walk between runs.
type RandomWalkInflow struct {
	base float64
	step float64
	min  float64
	max  float64
	seed int64

	rng     *rand.Rand
	current float64
}

// NewRandomWalkInflow creates a random walk starting at base, moving up to
// ±step per call, clamped to [min, max].
func NewRandomWalkInflow(base, step, min, max float64, seed int64) *RandomWalkInflow {
	w := &RandomWalkInflow{base: base, step: step, min: min, max: max, seed: seed}
	w.Reset()
	return w
}

func (w *RandomWalkInflow) Rate(t float64) float64 {
	w.current += (w.rng.Float64()*2 - 1) * w.step
	if w.current < w.min {
		w.current = w.min
	} else if w.current > w.max {
		w.current = w.max
	}
	return w.current
}

// Reset rewinds the walk to its seed state.
func (w *RandomWalkInflow) Reset() {
	w.rng = rand.New(rand.NewSource(w.seed))
	w.current = w.base
}
