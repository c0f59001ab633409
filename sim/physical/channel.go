package physical

import (
	"fmt"

	"github.com/hydronet-sim/hydronet-sim/sim"
)

// ChannelParams configures a RiverChannel.
type ChannelParams struct {
	// K is the linear-reservoir routing coefficient: outflow = K * volume.
	K float64

	// SurfaceArea converts volume to water level. When zero, the level is
	// scaled proportionally from the initial state.
	SurfaceArea float64
}

// RiverChannel routes flow with the linear-reservoir model: storage
// attenuates and delays the inflow wave.
type RiverChannel struct {
	volume  float64
	level   float64
	inflow  float64
	outflow float64

	k          float64
	levelScale float64 // level per unit volume

	initVolume float64
}

// NewRiverChannel creates a channel from its initial volume and water_level.
func NewRiverChannel(initial sim.State, params ChannelParams) (*RiverChannel, error) {
	if params.K <= 0 {
		return nil, fmt.Errorf("channel routing coefficient k must be positive, got %v", params.K)
	}
	c := &RiverChannel{
		volume:     initial["volume"],
		k:          params.K,
		initVolume: initial["volume"],
	}
	switch {
	case params.SurfaceArea > 0:
		c.levelScale = 1 / params.SurfaceArea
	case initial["volume"] > 0:
		c.levelScale = initial["water_level"] / initial["volume"]
	}
	c.level = c.volume * c.levelScale
	return c, nil
}

// State returns volume, water_level, and outflow.
func (c *RiverChannel) State() sim.State {
	return sim.State{"volume": c.volume, "water_level": c.level, "outflow": c.outflow}
}

// SetInflow sets the total inflow for the next Update.
func (c *RiverChannel) SetInflow(q float64) { c.inflow = q }

// Outflow returns the routed outflow of the most recent Update.
func (c *RiverChannel) Outflow() float64 { return c.outflow }

// Update routes one step: outflow from current storage, then mass balance.
func (c *RiverChannel) Update(dt float64) error {
	out := c.k * c.volume
	v := c.volume + (c.inflow-out)*dt
	if v < 0 {
		return fmt.Errorf("negative volume %.6g (inflow %.6g, outflow %.6g)", v, c.inflow, out)
	}
	c.volume = v
	c.outflow = out
	c.level = v * c.levelScale
	return nil
}

// Reset restores the construction-time state.
func (c *RiverChannel) Reset() {
	c.volume = c.initVolume
	c.level = c.volume * c.levelScale
	c.inflow = 0
	c.outflow = 0
}
