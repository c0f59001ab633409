package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DispatcherMode selects how a CentralDispatcherAgent turns observations
// into commands.
type DispatcherMode string

const (
	// ModeRule evaluates named rules in declaration order; the first match
	// wins and its commands are published.
	ModeRule DispatcherMode = "rule"

	// ModeProfile interpolates a continuous setpoint between two anchor
	// levels and publishes it every tick.
	ModeProfile DispatcherMode = "profile"
)

// StateSub declares one dispatcher subscription: the value under Key in
// messages on Topic is stored under alias As (Key when empty) in the
// dispatcher's observed state.
type StateSub struct {
	Topic string `yaml:"topic"`
	Key   string `yaml:"key"`
	As    string `yaml:"as,omitempty"`
}

// Command is one message a rule publishes when it fires.
type Command struct {
	Topic   string  `yaml:"topic"`
	Message Message `yaml:"message"`
}

// Rule pairs a condition with the commands to publish when it matches.
type Rule struct {
	Name     string    `yaml:"name"`
	When     Condition `yaml:"when"`
	Commands []Command `yaml:"commands"`
}

// ProfileParams configures ModeProfile: the observed Field is mapped
// linearly from [LowLevel, HighLevel] onto [LowSetpoint, HighSetpoint],
// clamped outside the anchors, and published on CommandTopic.
type ProfileParams struct {
	Field        string  `yaml:"field"`
	LowLevel     float64 `yaml:"low_level"`
	HighLevel    float64 `yaml:"high_level"`
	LowSetpoint  float64 `yaml:"low_setpoint"`
	HighSetpoint float64 `yaml:"high_setpoint"`
	CommandTopic string  `yaml:"command_topic"`
	CommandKey   string  `yaml:"command_key,omitempty"`
}

// CentralDispatcherAgent is the supervisory agent: it watches system-wide
// state topics and issues commands that retune control agents. It never
// touches a component directly.
type CentralDispatcherAgent struct {
	id      string
	bus     *Bus
	mode    DispatcherMode
	subs    []StateSub
	rules   []Rule
	profile *ProfileParams

	observed map[string]float64
	lastRule string
}

// NewCentralDispatcherAgent creates a supervisory agent and registers its
// subscriptions. Rules and profile parameters are validated later, at
// harness Build.
func NewCentralDispatcherAgent(id string, bus *Bus, mode DispatcherMode, subs []StateSub, rules []Rule, profile *ProfileParams) (*CentralDispatcherAgent, error) {
	if bus == nil {
		return nil, fmt.Errorf("agent %q: nil bus", id)
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("agent %q: at least one state subscription is required", id)
	}
	a := &CentralDispatcherAgent{
		id:       id,
		bus:      bus,
		mode:     mode,
		subs:     subs,
		rules:    rules,
		profile:  profile,
		observed: make(map[string]float64),
	}
	for _, sub := range subs {
		alias := sub.As
		if alias == "" {
			alias = sub.Key
		}
		key := sub.Key
		bus.Subscribe(sub.Topic, func(msg Message) error {
			if v, ok := msg[key]; ok {
				a.observed[alias] = v
			}
			return nil
		})
	}
	return a, nil
}

func (a *CentralDispatcherAgent) ID() string      { return a.id }
func (a *CentralDispatcherAgent) Kind() AgentKind { return KindSupervisory }

// Validate checks the declarative configuration: mode, subscriptions, rule
// conditions, and profile anchors.
func (a *CentralDispatcherAgent) Validate() error {
	for i, sub := range a.subs {
		if sub.Topic == "" || sub.Key == "" {
			return fmt.Errorf("agent %q: subscription %d needs topic and key", a.id, i)
		}
	}
	switch a.mode {
	case ModeRule:
		if len(a.rules) == 0 {
			return fmt.Errorf("agent %q: rule mode needs at least one rule", a.id)
		}
		for i, r := range a.rules {
			if err := r.When.Validate(); err != nil {
				return fmt.Errorf("agent %q: rule %d (%s): %w", a.id, i, r.Name, err)
			}
			for j, cmd := range r.Commands {
				if cmd.Topic == "" {
					return fmt.Errorf("agent %q: rule %d (%s): command %d has no topic", a.id, i, r.Name, j)
				}
			}
		}
	case ModeProfile:
		if a.profile == nil {
			return fmt.Errorf("agent %q: profile mode needs profile params", a.id)
		}
		p := a.profile
		if p.Field == "" || p.CommandTopic == "" {
			return fmt.Errorf("agent %q: profile needs field and command_topic", a.id)
		}
		if p.HighLevel <= p.LowLevel {
			return fmt.Errorf("agent %q: profile high_level %.4f must exceed low_level %.4f",
				a.id, p.HighLevel, p.LowLevel)
		}
	default:
		return fmt.Errorf("agent %q: unknown dispatcher mode %q", a.id, a.mode)
	}
	return nil
}

// LastRule returns the name of the rule that fired on the most recent tick,
// or "" when none matched.
func (a *CentralDispatcherAgent) LastRule() string { return a.lastRule }

// OnTick evaluates the configured dispatch logic against the latest observed
// state and publishes the resulting commands.
func (a *CentralDispatcherAgent) OnTick(now float64) error {
	if a.mode == ModeProfile {
		return a.tickProfile()
	}
	return a.tickRules()
}

func (a *CentralDispatcherAgent) tickRules() error {
	a.lastRule = ""
	for _, r := range a.rules {
		if !r.When.Eval(a.observed) {
			continue
		}
		a.lastRule = r.Name
		for _, cmd := range r.Commands {
			logrus.Debugf("dispatcher %s: rule %q fires, command on %q", a.id, r.Name, cmd.Topic)
			if err := a.bus.Publish(cmd.Topic, cmd.Message); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (a *CentralDispatcherAgent) tickProfile() error {
	p := a.profile
	v, ok := a.observed[p.Field]
	if !ok {
		return nil
	}
	frac := (v - p.LowLevel) / (p.HighLevel - p.LowLevel)
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	sp := p.LowSetpoint + frac*(p.HighSetpoint-p.LowSetpoint)
	key := p.CommandKey
	if key == "" {
		key = DefaultCommandKey
	}
	return a.bus.Publish(p.CommandTopic, Message{key: sp})
}

// Reset clears the observed state cache.
func (a *CentralDispatcherAgent) Reset() {
	a.observed = make(map[string]float64)
	a.lastRule = ""
}
