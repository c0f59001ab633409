package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Default message keys, matching the wire contract of the reference
// components.
const (
	DefaultActionKey  = "control_signal"
	DefaultCommandKey = "new_setpoint"
)

// ControlAgentConfig wires a LocalControlAgent to its topics.
type ControlAgentConfig struct {
	// ObservationTopic is the state topic the agent listens on; the value
	// under ObservationKey becomes the controller measurement.
	ObservationTopic string
	ObservationKey   string

	// ActionTopic receives the computed action under ActionKey
	// (DefaultActionKey when empty).
	ActionTopic string
	ActionKey   string

	// CommandTopic, when set, accepts supervisory setpoint overrides under
	// CommandKey (DefaultCommandKey when empty). The last command received
	// wins and is applied before the next tick's Compute.
	CommandTopic string
	CommandKey   string

	// Dt is the controller step, normally the harness dt.
	Dt float64
}

// LocalControlAgent closes one feedback loop: it caches the latest
// observation delivered through the bus and, once per tick, runs its
// controller and publishes the action. A pending supervisory command is
// applied to the controller setpoint before the tick's Compute, so overrides
// take effect no later than the next control cycle and never retroactively.
type LocalControlAgent struct {
	id         string
	bus        *Bus
	controller Controller
	cfg        ControlAgentConfig

	observation     float64
	hasObservation  bool
	pendingSetpoint *float64
}

// NewLocalControlAgent creates a control agent and registers its bus
// subscriptions.
func NewLocalControlAgent(id string, bus *Bus, controller Controller, cfg ControlAgentConfig) (*LocalControlAgent, error) {
	if bus == nil {
		return nil, fmt.Errorf("agent %q: nil bus", id)
	}
	if controller == nil {
		return nil, fmt.Errorf("agent %q: nil controller", id)
	}
	if cfg.ObservationTopic == "" || cfg.ObservationKey == "" {
		return nil, fmt.Errorf("agent %q: observation topic and key are required", id)
	}
	if cfg.ActionTopic == "" {
		return nil, fmt.Errorf("agent %q: action topic is required", id)
	}
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("agent %q: dt must be positive, got %v", id, cfg.Dt)
	}
	if cfg.ActionKey == "" {
		cfg.ActionKey = DefaultActionKey
	}
	if cfg.CommandKey == "" {
		cfg.CommandKey = DefaultCommandKey
	}

	a := &LocalControlAgent{id: id, bus: bus, controller: controller, cfg: cfg}
	bus.Subscribe(cfg.ObservationTopic, a.onObservation)
	if cfg.CommandTopic != "" {
		bus.Subscribe(cfg.CommandTopic, a.onCommand)
	}
	return a, nil
}

func (a *LocalControlAgent) ID() string      { return a.id }
func (a *LocalControlAgent) Kind() AgentKind { return KindControl }

// ActionTopic identifies the topic this agent publishes actions on. The
// harness enforces single-writer per action topic at Build.
func (a *LocalControlAgent) ActionTopic() string { return a.cfg.ActionTopic }

// Controller returns the owned controller.
func (a *LocalControlAgent) Controller() Controller { return a.controller }

func (a *LocalControlAgent) onObservation(msg Message) error {
	v, ok := msg[a.cfg.ObservationKey]
	if !ok {
		return nil
	}
	a.observation = v
	a.hasObservation = true
	return nil
}

func (a *LocalControlAgent) onCommand(msg Message) error {
	v, ok := msg[a.cfg.CommandKey]
	if !ok {
		return nil
	}
	sp := v
	a.pendingSetpoint = &sp
	return nil
}

// OnTick applies any pending setpoint command, computes the action from the
// latest observation, and publishes it. Before the first observation arrives
// the agent stays silent.
func (a *LocalControlAgent) OnTick(now float64) error {
	if a.pendingSetpoint != nil {
		logrus.Infof("agent %s: setpoint override %.4f -> %.4f",
			a.id, a.controller.Setpoint(), *a.pendingSetpoint)
		a.controller.SetSetpoint(*a.pendingSetpoint)
		a.pendingSetpoint = nil
	}
	if !a.hasObservation {
		logrus.Debugf("agent %s: no observation yet, skipping tick", a.id)
		return nil
	}
	out := a.controller.Compute(a.observation, a.cfg.Dt)
	return a.bus.Publish(a.cfg.ActionTopic, Message{a.cfg.ActionKey: out})
}

// Reset clears the cached observation and pending command and resets the
// controller accumulators.
func (a *LocalControlAgent) Reset() {
	a.hasObservation = false
	a.observation = 0
	a.pendingSetpoint = nil
	a.controller.Reset()
}

// SaturationTicks reports the owned controller's saturation count when the
// controller tracks one.
func (a *LocalControlAgent) SaturationTicks() int {
	if sr, ok := a.controller.(interface{ SaturationTicks() int }); ok {
		return sr.SaturationTicks()
	}
	return 0
}
