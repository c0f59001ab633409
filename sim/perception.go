package sim

import "fmt"

// DigitalTwinAgent is the perception agent: it holds a read-only tap on one
// component and republishes the component's state on its state topic every
// tick. The component binding is the single deliberate coupling point in the
// agent layer; it models an instrumentation tap, not a control dependency.
type DigitalTwinAgent struct {
	id         string
	component  Component
	bus        *Bus
	stateTopic string
	fields     []string // nil means publish the full state mapping
}

// NewDigitalTwinAgent creates a perception agent bound to component. If any
// fields are given, only that subset of the state is published.
func NewDigitalTwinAgent(id string, component Component, bus *Bus, stateTopic string, fields ...string) (*DigitalTwinAgent, error) {
	if component == nil {
		return nil, fmt.Errorf("agent %q: nil component", id)
	}
	if bus == nil {
		return nil, fmt.Errorf("agent %q: nil bus", id)
	}
	if stateTopic == "" {
		return nil, fmt.Errorf("agent %q: empty state topic", id)
	}
	return &DigitalTwinAgent{
		id:         id,
		component:  component,
		bus:        bus,
		stateTopic: stateTopic,
		fields:     fields,
	}, nil
}

func (a *DigitalTwinAgent) ID() string      { return a.id }
func (a *DigitalTwinAgent) Kind() AgentKind { return KindPerception }

// StateTopic returns the topic the agent publishes on.
func (a *DigitalTwinAgent) StateTopic() string { return a.stateTopic }

// OnTick samples the bound component and publishes its state.
func (a *DigitalTwinAgent) OnTick(now float64) error {
	state := a.component.State()
	msg := Message(state)
	if a.fields != nil {
		msg = make(Message, len(a.fields))
		for _, f := range a.fields {
			if v, ok := state[f]; ok {
				msg[f] = v
			}
		}
	}
	return a.bus.Publish(a.stateTopic, msg)
}
