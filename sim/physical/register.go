package physical

import (
	"github.com/hydronet-sim/hydronet-sim/sim"
)

// Scenario type names provided by this package.
const (
	TypeReservoir    = "reservoir"
	TypeGate         = "gate"
	TypeRiverChannel = "river_channel"
)

func init() {
	sim.RegisterComponentType(TypeReservoir, newReservoirFromSpec)
	sim.RegisterComponentType(TypeGate, newGateFromSpec)
	sim.RegisterComponentType(TypeRiverChannel, newChannelFromSpec)
}

func newReservoirFromSpec(spec sim.ComponentSpec, bus *sim.Bus) (sim.Component, error) {
	return NewReservoir(sim.State(spec.Initial), ReservoirParams{
		SurfaceArea:  spec.Parameters["surface_area"],
		StorageCurve: spec.StorageCurve,
	})
}

func newGateFromSpec(spec sim.ComponentSpec, bus *sim.Bus) (sim.Component, error) {
	return NewGate(sim.State(spec.Initial), GateParams{
		DischargeCoeff:  spec.Parameters["discharge_coefficient"],
		Width:           spec.Parameters["width"],
		MaxOpening:      spec.Parameters["max_opening"],
		MaxRateOfChange: spec.Parameters["max_rate_of_change"],
	}, bus, spec.ActionTopic, spec.ActionKey)
}

func newChannelFromSpec(spec sim.ComponentSpec, bus *sim.Bus) (sim.Component, error) {
	return NewRiverChannel(sim.State(spec.Initial), ChannelParams{
		K:           spec.Parameters["k"],
		SurfaceArea: spec.Parameters["surface_area"],
	})
}
