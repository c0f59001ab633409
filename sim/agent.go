package sim

// AgentKind orders agents within a tick: all perception agents act before
// any control agent, and all control agents before any supervisory agent,
// so freshly sampled state is always visible before it is acted upon.
// Within a kind, agents act in registration order.
type AgentKind int

const (
	KindPerception AgentKind = iota
	KindControl
	KindSupervisory
)

func (k AgentKind) String() string {
	switch k {
	case KindPerception:
		return "perception"
	case KindControl:
		return "control"
	case KindSupervisory:
		return "supervisory"
	default:
		return "unknown"
	}
}

// Agent is a decoupled actor that knows only about topics, never about other
// agents. Message delivery is push-based and may happen many times per tick
// (the bus invokes subscriptions during other agents' publishes); OnTick is
// pull-based and happens exactly once per agent per tick, driven by the
// harness.
type Agent interface {
	ID() string
	Kind() AgentKind

	// OnTick performs the agent's once-per-tick action at simulation time
	// now. An error aborts the run.
	OnTick(now float64) error
}

// ActionPublisher is implemented by agents that publish control actions.
// The harness uses it at Build to enforce that every action topic has
// exactly one publisher.
type ActionPublisher interface {
	ActionTopic() string
}

// Validator is implemented by agents carrying declarative configuration
// (dispatcher rules) that can be checked before any tick runs.
type Validator interface {
	Validate() error
}

// Resettable is implemented by agents and profiles with per-run state.
type Resettable interface {
	Reset()
}
