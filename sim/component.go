package sim

// State is a snapshot of a component's observable variables, for example
// water_level, volume, or opening.
type State map[string]float64

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Component is the uniform contract every physical component implements.
// A component owns its state exclusively: nothing outside Update mutates it.
// Components know nothing about the bus or about each other; message-aware
// components (a gate taking actions) subscribe themselves at construction
// and buffer the latest action for their own Update.
type Component interface {
	// State returns a copy of the current state mapping.
	State() State

	// SetInflow sets the total inflow for the upcoming Update. The harness
	// derives it from topology: the sum of upstream outflows computed earlier
	// in the same tick, plus any boundary inflow profile.
	SetInflow(q float64)

	// Outflow returns the outflow computed by the most recent Update.
	Outflow() float64

	// Update advances the physical state by dt. An error means the update
	// produced an invalid state and aborts the run.
	Update(dt float64) error

	// Reset restores the construction-time state.
	Reset()
}

// HeadAware is implemented by components whose conveyance depends on the
// water level immediately upstream (gates). The harness delivers the
// upstream level before each Update.
type HeadAware interface {
	SetUpstreamHead(h float64)
}

// DrawAware is implemented by storage components whose release is set by
// downstream draw rather than by their own state (reservoirs). The harness
// delivers the draw observed at the end of the previous tick.
type DrawAware interface {
	SetDraw(q float64)
}

// FlowSplitter lets a component with multiple downstream connections decide
// how its outflow is partitioned across them. The returned map must be keyed
// by downstream component ID. Components that branch but do not implement
// FlowSplitter get an even split from the harness.
type FlowSplitter interface {
	SplitOutflow(downstream []string) map[string]float64
}
