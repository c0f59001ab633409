package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ComponentSpec describes one physical component in a scenario file.
type ComponentSpec struct {
	ID         string             `yaml:"id"`
	Type       string             `yaml:"type"`
	Initial    map[string]float64 `yaml:"initial"`
	Parameters map[string]float64 `yaml:"parameters"`

	// StorageCurve is a monotone [volume, level] table for storage
	// components.
	StorageCurve [][]float64 `yaml:"storage_curve,omitempty"`

	// ActionTopic/ActionKey make a component message-aware: it subscribes
	// for actions at construction and buffers the latest one.
	ActionTopic string `yaml:"action_topic,omitempty"`
	ActionKey   string `yaml:"action_key,omitempty"`
}

// ComponentFactory builds a component from its spec. Factories for
// message-aware components subscribe to bus themselves.
type ComponentFactory func(spec ComponentSpec, bus *Bus) (Component, error)

var componentFactories = map[string]ComponentFactory{}

// RegisterComponentType registers a factory under a type name. Called from
// init() in implementation sub-packages; later registrations replace
// earlier ones.
func RegisterComponentType(name string, f ComponentFactory) {
	componentFactories[name] = f
}

// RegisteredComponentTypes returns the known component type names.
func RegisteredComponentTypes() []string {
	names := make([]string, 0, len(componentFactories))
	for name := range componentFactories {
		names = append(names, name)
	}
	return names
}

// ConnectionSpec is one directed edge in a scenario file.
type ConnectionSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// PIDSpec configures the controller of a control agent.
type PIDSpec struct {
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	Setpoint  float64 `yaml:"setpoint"`
	MinOutput float64 `yaml:"min_output"`
	MaxOutput float64 `yaml:"max_output"`
}

// AgentSpec describes one agent in a scenario file. Which fields apply
// depends on Kind.
type AgentSpec struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"` // perception | control | supervisory

	// perception
	Component  string   `yaml:"component,omitempty"`
	StateTopic string   `yaml:"state_topic,omitempty"`
	Fields     []string `yaml:"fields,omitempty"`

	// control
	ObservationTopic string  `yaml:"observation_topic,omitempty"`
	ObservationKey   string  `yaml:"observation_key,omitempty"`
	ActionTopic      string  `yaml:"action_topic,omitempty"`
	ActionKey        string  `yaml:"action_key,omitempty"`
	CommandTopic     string  `yaml:"command_topic,omitempty"`
	PID              *PIDSpec `yaml:"pid,omitempty"`

	// supervisory
	Mode          string         `yaml:"mode,omitempty"` // rule | profile
	Subscriptions []StateSub     `yaml:"subscriptions,omitempty"`
	Rules         []Rule         `yaml:"rules,omitempty"`
	Profile       *ProfileParams `yaml:"profile,omitempty"`
}

// InflowSpec attaches a boundary inflow profile to a component.
type InflowSpec struct {
	Component string  `yaml:"component"`
	Profile   string  `yaml:"profile"` // constant | pulse | random_walk
	Value     float64 `yaml:"value,omitempty"`
	Base      float64 `yaml:"base,omitempty"`
	Peak      float64 `yaml:"peak,omitempty"`
	Start     float64 `yaml:"start,omitempty"`
	End       float64 `yaml:"end,omitempty"`
	Step      float64 `yaml:"step,omitempty"`
	Min       float64 `yaml:"min,omitempty"`
	Max       float64 `yaml:"max,omitempty"`
	Seed      int64   `yaml:"seed,omitempty"`
}

// Scenario is a complete simulation configuration, loadable from YAML.
type Scenario struct {
	Duration float64 `yaml:"duration"`
	Dt       float64 `yaml:"dt"`
	Mode     string  `yaml:"mode"` // direct | mas

	Components  []ComponentSpec  `yaml:"components"`
	Connections []ConnectionSpec `yaml:"connections"`
	Agents      []AgentSpec      `yaml:"agents,omitempty"`
	Inflows     []InflowSpec     `yaml:"inflows,omitempty"`
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &s, nil
}

var validAgentKinds = map[string]bool{"perception": true, "control": true, "supervisory": true}
var validInflowProfiles = map[string]bool{"constant": true, "pulse": true, "random_walk": true}
var validModes = map[string]bool{"": true, "direct": true, "mas": true}

// Validate checks the scenario before any harness is constructed: names,
// references, modes, curve shapes. Deeper agent validation (rule conditions,
// profile anchors) happens at harness Build.
func (s *Scenario) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", s.Duration)
	}
	if s.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %v", s.Dt)
	}
	if !validModes[s.Mode] {
		return fmt.Errorf("unknown mode %q", s.Mode)
	}
	ids := make(map[string]bool, len(s.Components))
	for i, c := range s.Components {
		if c.ID == "" {
			return fmt.Errorf("component %d has no id", i)
		}
		if ids[c.ID] {
			return fmt.Errorf("component %q: %w", c.ID, ErrDuplicateID)
		}
		ids[c.ID] = true
		if _, ok := componentFactories[c.Type]; !ok {
			return fmt.Errorf("component %q: unknown type %q (registered: %v)",
				c.ID, c.Type, RegisteredComponentTypes())
		}
		for j, pt := range c.StorageCurve {
			if len(pt) != 2 {
				return fmt.Errorf("component %q: storage_curve[%d] must be [volume, level]", c.ID, j)
			}
		}
	}
	for _, conn := range s.Connections {
		if !ids[conn.From] {
			return fmt.Errorf("connection %s -> %s: %q: %w", conn.From, conn.To, conn.From, ErrUnknownComponent)
		}
		if !ids[conn.To] {
			return fmt.Errorf("connection %s -> %s: %q: %w", conn.From, conn.To, conn.To, ErrUnknownComponent)
		}
	}
	for _, a := range s.Agents {
		if a.ID == "" {
			return fmt.Errorf("agent with empty id")
		}
		if !validAgentKinds[a.Kind] {
			return fmt.Errorf("agent %q: unknown kind %q", a.ID, a.Kind)
		}
		if a.Kind == "perception" && !ids[a.Component] {
			return fmt.Errorf("agent %q: component %q: %w", a.ID, a.Component, ErrUnknownComponent)
		}
		if a.Kind == "control" && a.PID == nil {
			return fmt.Errorf("agent %q: control agent needs a pid block", a.ID)
		}
	}
	for _, in := range s.Inflows {
		if !ids[in.Component] {
			return fmt.Errorf("inflow for %q: %w", in.Component, ErrUnknownComponent)
		}
		if !validInflowProfiles[in.Profile] {
			return fmt.Errorf("inflow for %q: unknown profile %q", in.Component, in.Profile)
		}
	}
	return nil
}

// BuildHarness assembles a bus, all components and agents, and a built
// harness from a validated scenario.
func (s *Scenario) BuildHarness() (*Harness, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	bus := NewBus()
	h := NewHarness(bus, s.Duration, s.Dt)

	components := make(map[string]Component, len(s.Components))
	for _, spec := range s.Components {
		factory := componentFactories[spec.Type]
		c, err := factory(spec, bus)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", spec.ID, err)
		}
		components[spec.ID] = c
		h.AddComponent(spec.ID, c)
	}
	for _, conn := range s.Connections {
		h.AddConnection(conn.From, conn.To)
	}
	for _, spec := range s.Agents {
		a, err := buildAgent(spec, bus, components, s.Dt)
		if err != nil {
			return nil, err
		}
		h.AddAgent(a)
	}
	for _, in := range s.Inflows {
		h.SetBoundaryInflow(in.Component, buildInflow(in))
	}
	if err := h.Build(); err != nil {
		return nil, err
	}
	return h, nil
}

func buildAgent(spec AgentSpec, bus *Bus, components map[string]Component, dt float64) (Agent, error) {
	switch spec.Kind {
	case "perception":
		return NewDigitalTwinAgent(spec.ID, components[spec.Component], bus, spec.StateTopic, spec.Fields...)
	case "control":
		pid := NewPIDController(spec.PID.Kp, spec.PID.Ki, spec.PID.Kd,
			spec.PID.Setpoint, spec.PID.MinOutput, spec.PID.MaxOutput)
		return NewLocalControlAgent(spec.ID, bus, pid, ControlAgentConfig{
			ObservationTopic: spec.ObservationTopic,
			ObservationKey:   spec.ObservationKey,
			ActionTopic:      spec.ActionTopic,
			ActionKey:        spec.ActionKey,
			CommandTopic:     spec.CommandTopic,
			Dt:               dt,
		})
	case "supervisory":
		return NewCentralDispatcherAgent(spec.ID, bus, DispatcherMode(spec.Mode),
			spec.Subscriptions, spec.Rules, spec.Profile)
	default:
		return nil, fmt.Errorf("agent %q: unknown kind %q", spec.ID, spec.Kind)
	}
}

func buildInflow(spec InflowSpec) InflowProfile {
	switch spec.Profile {
	case "pulse":
		return PulseInflow{Base: spec.Base, Peak: spec.Peak, Start: spec.Start, End: spec.End}
	case "random_walk":
		return NewRandomWalkInflow(spec.Base, spec.Step, spec.Min, spec.Max, spec.Seed)
	default:
		return ConstantInflow{Value: spec.Value}
	}
}
