// Package physical provides the reference component implementations:
// reservoir, gate, and river channel. They satisfy the sim.Component
// contract and register themselves with the engine's scenario factory table
// in init().
package physical

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/hydronet-sim/hydronet-sim/sim"
)

// ReservoirParams configures a Reservoir. Either a storage curve or a
// surface area must be given; the curve wins when both are present.
type ReservoirParams struct {
	// SurfaceArea converts volume to level linearly: level = volume / area.
	SurfaceArea float64

	// StorageCurve is a [volume, level] table, strictly increasing in
	// volume, interpolated piecewise-linearly.
	StorageCurve [][]float64
}

// Reservoir is a storage component: mass balance on volume, level from the
// storage curve. Its release is demand-driven: the harness delivers the
// downstream draw (sim.DrawAware) and the reservoir's outflow equals it.
type Reservoir struct {
	volume float64
	level  float64

	inflow float64
	draw   float64

	surfaceArea float64
	curve       *interp.PiecewiseLinear
	curveMin    float64
	curveMax    float64

	initVolume float64
}

// NewReservoir creates a reservoir from its initial state (volume, and
// optionally water_level, which is recomputed from the curve anyway).
func NewReservoir(initial sim.State, params ReservoirParams) (*Reservoir, error) {
	r := &Reservoir{
		volume:      initial["volume"],
		surfaceArea: params.SurfaceArea,
		initVolume:  initial["volume"],
	}
	if len(params.StorageCurve) > 0 {
		if len(params.StorageCurve) < 2 {
			return nil, fmt.Errorf("storage curve needs at least 2 points, got %d", len(params.StorageCurve))
		}
		xs := make([]float64, len(params.StorageCurve))
		ys := make([]float64, len(params.StorageCurve))
		for i, pt := range params.StorageCurve {
			if len(pt) != 2 {
				return nil, fmt.Errorf("storage curve point %d must be [volume, level]", i)
			}
			xs[i], ys[i] = pt[0], pt[1]
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("storage curve: %w", err)
		}
		r.curve = &pl
		r.curveMin = xs[0]
		r.curveMax = xs[len(xs)-1]
	} else if params.SurfaceArea <= 0 {
		return nil, fmt.Errorf("reservoir needs a storage curve or a positive surface area")
	}
	r.level = r.levelFor(r.volume)
	return r, nil
}

func (r *Reservoir) levelFor(volume float64) float64 {
	if r.curve != nil {
		v := volume
		if v < r.curveMin {
			v = r.curveMin
		} else if v > r.curveMax {
			v = r.curveMax
		}
		return r.curve.Predict(v)
	}
	return volume / r.surfaceArea
}

// State returns volume and water_level.
func (r *Reservoir) State() sim.State {
	return sim.State{"volume": r.volume, "water_level": r.level}
}

// SetInflow sets the total inflow for the next Update.
func (r *Reservoir) SetInflow(q float64) { r.inflow = q }

// SetDraw sets the downstream draw released during the next Update.
func (r *Reservoir) SetDraw(q float64) { r.draw = q }

// Outflow returns the release of the most recent Update.
func (r *Reservoir) Outflow() float64 { return r.draw }

// Update advances the mass balance. A negative volume is an invalid state
// and aborts the run.
func (r *Reservoir) Update(dt float64) error {
	v := r.volume + (r.inflow-r.draw)*dt
	if v < 0 {
		return fmt.Errorf("negative volume %.6g (inflow %.6g, draw %.6g)", v, r.inflow, r.draw)
	}
	r.volume = v
	r.level = r.levelFor(v)
	return nil
}

// Reset restores the construction-time state.
func (r *Reservoir) Reset() {
	r.volume = r.initVolume
	r.level = r.levelFor(r.volume)
	r.inflow = 0
	r.draw = 0
}
