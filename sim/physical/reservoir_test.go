package physical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydronet-sim/hydronet-sim/sim"
)

func TestReservoir_StorageCurveInterpolation(t *testing.T) {
	// GIVEN a linear storage curve [0,0] -> [30e6, 20]
	r, err := NewReservoir(sim.State{"volume": 21e6}, ReservoirParams{
		StorageCurve: [][]float64{{0, 0}, {30e6, 20}},
	})
	require.NoError(t, err)

	// THEN the initial level interpolates to 14
	assert.InDelta(t, 14.0, r.State()["water_level"], 1e-9)
}

func TestReservoir_StorageCurveClampsOutsideTable(t *testing.T) {
	r, err := NewReservoir(sim.State{"volume": 50e6}, ReservoirParams{
		StorageCurve: [][]float64{{0, 0}, {30e6, 20}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, r.State()["water_level"], 1e-9)
}

func TestReservoir_MassBalance(t *testing.T) {
	r, err := NewReservoir(sim.State{"volume": 1000.0}, ReservoirParams{SurfaceArea: 100.0})
	require.NoError(t, err)

	r.SetInflow(10.0)
	r.SetDraw(4.0)
	require.NoError(t, r.Update(2.0))

	// volume += (10 - 4) * 2
	assert.InDelta(t, 1012.0, r.State()["volume"], 1e-9)
	assert.InDelta(t, 10.12, r.State()["water_level"], 1e-9)
	assert.Equal(t, 4.0, r.Outflow())
}

func TestReservoir_NegativeVolumeAborts(t *testing.T) {
	r, err := NewReservoir(sim.State{"volume": 5.0}, ReservoirParams{SurfaceArea: 1.0})
	require.NoError(t, err)

	r.SetInflow(0)
	r.SetDraw(10.0)
	assert.Error(t, r.Update(1.0))
}

func TestReservoir_Reset(t *testing.T) {
	r, err := NewReservoir(sim.State{"volume": 1000.0}, ReservoirParams{SurfaceArea: 100.0})
	require.NoError(t, err)
	r.SetInflow(50.0)
	require.NoError(t, r.Update(1.0))
	require.NotEqual(t, 1000.0, r.State()["volume"])

	r.Reset()

	assert.Equal(t, 1000.0, r.State()["volume"])
	assert.InDelta(t, 10.0, r.State()["water_level"], 1e-9)
	// Buffered signals are cleared: an update after reset is a no-op.
	require.NoError(t, r.Update(1.0))
	assert.Equal(t, 1000.0, r.State()["volume"])
}

func TestReservoir_ConstructorValidation(t *testing.T) {
	_, err := NewReservoir(sim.State{"volume": 1}, ReservoirParams{})
	assert.Error(t, err, "neither curve nor area")

	_, err = NewReservoir(sim.State{"volume": 1}, ReservoirParams{
		StorageCurve: [][]float64{{0, 0}},
	})
	assert.Error(t, err, "single-point curve")

	_, err = NewReservoir(sim.State{"volume": 1}, ReservoirParams{
		StorageCurve: [][]float64{{0, 0}, {1, 2, 3}},
	})
	assert.Error(t, err, "malformed curve point")
}
