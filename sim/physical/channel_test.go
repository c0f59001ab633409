package physical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydronet-sim/hydronet-sim/sim"
)

func TestChannel_LinearReservoirRouting(t *testing.T) {
	c, err := NewRiverChannel(sim.State{"volume": 100.0}, ChannelParams{K: 0.1})
	require.NoError(t, err)

	c.SetInflow(5.0)
	require.NoError(t, c.Update(1.0))

	// outflow = k * volume(before) = 10; volume += (5 - 10) * 1
	assert.Equal(t, 10.0, c.Outflow())
	assert.InDelta(t, 95.0, c.State()["volume"], 1e-9)
}

func TestChannel_AttenuatesInflowWave(t *testing.T) {
	// GIVEN a channel at steady state with inflow 10 (volume = q/k)
	c, err := NewRiverChannel(sim.State{"volume": 100.0}, ChannelParams{K: 0.1})
	require.NoError(t, err)

	// WHEN the inflow steps to 20 for a while
	peak := 0.0
	for i := 0; i < 30; i++ {
		c.SetInflow(20.0)
		require.NoError(t, c.Update(1.0))
		if c.Outflow() > peak {
			peak = c.Outflow()
		}
	}

	// THEN the outflow rises toward 20 without overshooting it
	assert.Greater(t, peak, 10.0)
	assert.LessOrEqual(t, peak, 20.0)
	assert.InDelta(t, 20.0, c.Outflow(), 1.0)
}

func TestChannel_LevelFromSurfaceArea(t *testing.T) {
	c, err := NewRiverChannel(sim.State{"volume": 500.0}, ChannelParams{K: 0.01, SurfaceArea: 100.0})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, c.State()["water_level"], 1e-9)
}

func TestChannel_LevelProportionalToInitialState(t *testing.T) {
	// Without a surface area the level scales from the initial pair.
	c, err := NewRiverChannel(sim.State{"volume": 200.0, "water_level": 4.0}, ChannelParams{K: 0.01})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, c.State()["water_level"], 1e-9)

	c.SetInflow(2.0) // outflow at start is 2.0 too, steady state
	require.NoError(t, c.Update(1.0))
	assert.InDelta(t, 4.0, c.State()["water_level"], 1e-9)
}

func TestChannel_NegativeVolumeAborts(t *testing.T) {
	c, err := NewRiverChannel(sim.State{"volume": 1.0}, ChannelParams{K: 2.0})
	require.NoError(t, err)

	c.SetInflow(0)
	assert.Error(t, c.Update(1.0))
}

func TestChannel_RequiresPositiveK(t *testing.T) {
	_, err := NewRiverChannel(sim.State{"volume": 1.0}, ChannelParams{})
	assert.Error(t, err)
}

func TestChannel_Reset(t *testing.T) {
	c, err := NewRiverChannel(sim.State{"volume": 100.0}, ChannelParams{K: 0.1, SurfaceArea: 10.0})
	require.NoError(t, err)
	c.SetInflow(50.0)
	require.NoError(t, c.Update(1.0))

	c.Reset()

	assert.Equal(t, 100.0, c.State()["volume"])
	assert.InDelta(t, 10.0, c.State()["water_level"], 1e-9)
	assert.Equal(t, 0.0, c.State()["outflow"])
}
