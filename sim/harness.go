package sim

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

type edge struct {
	up   string
	down string
}

// Harness is the top-level orchestrator: it owns the clock, the component
// graph, the agent set, and the bus. Lifecycle: AddComponent/AddConnection/
// AddAgent in any order, then Build, then exactly one of Run (direct mode)
// or RunMAS (agent-mediated mode), then Reset before any further run.
//
// Execution is single-threaded and cooperative; every run is byte-for-byte
// reproducible given the same inputs.
type Harness struct {
	bus   *Bus
	graph *Graph
	clock Clock

	agents        []Agent
	orderedAgents []Agent
	inflows       map[string]InflowProfile

	// draws holds the downstream draw recorded at the end of the previous
	// tick for each DrawAware component; forward flow propagates same-tick,
	// the demand side lags one tick.
	draws map[string]float64

	history History
	metrics *Metrics

	built bool
	ran   bool

	busPubBase int
	busDelBase int
}

// NewHarness creates a harness around bus with a clock of the given duration
// and step.
func NewHarness(bus *Bus, duration, dt float64) *Harness {
	return &Harness{
		bus:     bus,
		graph:   NewGraph(),
		clock:   NewClock(duration, dt),
		inflows: make(map[string]InflowProfile),
		draws:   make(map[string]float64),
		metrics: NewMetrics(),
	}
}

// Bus returns the bus this harness was built around.
func (h *Harness) Bus() *Bus { return h.bus }

// Graph exposes the component graph (read-only after Build).
func (h *Harness) Graph() *Graph { return h.graph }

// Clock returns a copy of the simulation clock.
func (h *Harness) Clock() Clock { return h.clock }

// History returns the snapshots recorded so far.
func (h *Harness) History() History { return h.history }

// Metrics returns the aggregate for the most recent run.
func (h *Harness) Metrics() *Metrics { return h.metrics }

// AddComponent registers a component under id.
func (h *Harness) AddComponent(id string, c Component) {
	h.graph.AddComponent(id, c)
}

// AddConnection records a directed upstream -> downstream edge.
func (h *Harness) AddConnection(upstreamID, downstreamID string) {
	h.graph.AddConnection(upstreamID, downstreamID)
}

// AddAgent registers an agent. Tick order is by kind (perception, control,
// supervisory), then registration order.
func (h *Harness) AddAgent(a Agent) {
	h.agents = append(h.agents, a)
}

// SetBoundaryInflow attaches an external inflow profile to a component. The
// profile value is added to the component's topology-derived inflow each
// tick, in both run modes.
func (h *Harness) SetBoundaryInflow(componentID string, p InflowProfile) {
	h.inflows[componentID] = p
}

// Build validates the configuration and fixes the topological order. It
// fails fast on duplicate IDs, dangling references, cycles, conflicting
// action topics, and invalid agent configuration. A harness whose Build
// failed refuses to run.
func (h *Harness) Build() error {
	h.built = false
	if h.clock.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %v", h.clock.Dt)
	}
	if err := h.graph.Build(); err != nil {
		return err
	}
	for id := range h.inflows {
		if _, ok := h.graph.Component(id); !ok {
			return fmt.Errorf("boundary inflow for %q: %w", id, ErrUnknownComponent)
		}
	}

	seen := make(map[string]bool, len(h.agents))
	actionTopics := make(map[string]string)
	for _, a := range h.agents {
		if seen[a.ID()] {
			return fmt.Errorf("agent %q: %w", a.ID(), ErrDuplicateID)
		}
		seen[a.ID()] = true
		if ap, ok := a.(ActionPublisher); ok {
			topic := ap.ActionTopic()
			if prev, taken := actionTopics[topic]; taken {
				return fmt.Errorf("topic %q claimed by %q and %q: %w",
					topic, prev, a.ID(), ErrActionTopicConflict)
			}
			actionTopics[topic] = a.ID()
		}
		if v, ok := a.(Validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}

	h.orderedAgents = append([]Agent(nil), h.agents...)
	sort.SliceStable(h.orderedAgents, func(i, j int) bool {
		return h.orderedAgents[i].Kind() < h.orderedAgents[j].Kind()
	})

	h.history = make(History, 0, h.clock.Steps())
	h.built = true
	logrus.Infof("harness built: %d components, %d agents, order %v",
		h.graph.Len(), len(h.agents), h.graph.Order())
	return nil
}

func (h *Harness) checkRunnable() error {
	if !h.built {
		return ErrNotBuilt
	}
	if h.ran {
		return ErrAlreadyRan
	}
	return nil
}

// Run executes the simulation in direct mode: the harness derives every
// component's inflow from topology and calls Update itself, with no bus
// traffic and no agent involvement. Used for tests and non-agent scenarios;
// shares the clock and history contract with RunMAS so results compare.
func (h *Harness) Run() (History, error) {
	return h.run(false)
}

// RunMAS executes the simulation in agent-mediated mode: each tick triggers
// perception, then control, then supervisory agents, then the topologically
// ordered physical phase, then appends a snapshot to history.
func (h *Harness) RunMAS() (History, error) {
	return h.run(true)
}

func (h *Harness) run(mas bool) (History, error) {
	if err := h.checkRunnable(); err != nil {
		return nil, err
	}
	h.ran = true
	h.busPubBase = h.bus.PublishedCount()
	h.busDelBase = h.bus.DeliveredCount()
	mode := "direct"
	if mas {
		mode = "mas"
	}
	start := time.Now()
	steps := h.clock.Steps()
	logrus.Infof("run (%s): %d ticks, dt=%v", mode, steps, h.clock.Dt)

	for tick := 0; tick < steps; tick++ {
		h.clock.Tick = tick
		h.clock.Now = float64(tick) * h.clock.Dt
		logrus.Debugf("[tick %06d] t=%.3f", tick, h.clock.Now)

		if mas {
			for _, a := range h.orderedAgents {
				if err := a.OnTick(h.clock.Now); err != nil {
					return nil, fmt.Errorf("tick %d: agent %s (%s): %w",
						tick, a.ID(), a.Kind(), err)
				}
			}
		}
		if err := h.stepPhysical(); err != nil {
			return nil, fmt.Errorf("tick %d: %w", tick, err)
		}
		h.history = append(h.history, h.snapshot())
		h.metrics.Ticks++
	}
	h.clock.Tick = steps
	h.clock.Now = float64(steps) * h.clock.Dt

	h.metrics.Mode = mode
	h.metrics.WallTime = time.Since(start)
	h.metrics.MessagesPublished = h.bus.PublishedCount() - h.busPubBase
	h.metrics.MessagesDelivered = h.bus.DeliveredCount() - h.busDelBase
	h.metrics.FinalState = h.snapshot()
	for _, a := range h.agents {
		if sr, ok := a.(interface{ SaturationTicks() int }); ok {
			h.metrics.SaturationTicks += sr.SaturationTicks()
		}
	}
	logrus.Infof("run (%s) complete: %d ticks in %s", mode, steps, h.metrics.WallTime)
	return h.history, nil
}

// stepPhysical advances every component one step in topological order, so a
// downstream component's inflow is derived from its upstream neighbors'
// just-computed outflows within the same tick. Confluences sum inflows;
// branching components partition their own outflow.
func (h *Harness) stepPhysical() error {
	outflows := make(map[string]float64, h.graph.Len())
	delivered := make(map[edge]float64)

	for _, id := range h.graph.Order() {
		c, _ := h.graph.Component(id)

		inflow := 0.0
		if p, ok := h.inflows[id]; ok {
			inflow += p.Rate(h.clock.Now)
		}
		ups := h.graph.Upstream(id)
		for _, up := range ups {
			inflow += delivered[edge{up, id}]
		}

		if ha, ok := c.(HeadAware); ok {
			for _, up := range ups {
				upComp, _ := h.graph.Component(up)
				if lvl, found := upComp.State()["water_level"]; found {
					ha.SetUpstreamHead(lvl)
					break
				}
			}
		}
		if da, ok := c.(DrawAware); ok {
			da.SetDraw(h.draws[id])
		}

		c.SetInflow(inflow)
		if err := c.Update(h.clock.Dt); err != nil {
			return &ComponentUpdateError{ComponentID: id, Err: err}
		}
		h.metrics.ComponentUpdates++

		out := c.Outflow()
		outflows[id] = out
		downs := h.graph.Downstream(id)
		switch len(downs) {
		case 0:
		case 1:
			delivered[edge{id, downs[0]}] = out
		default:
			if fs, ok := c.(FlowSplitter); ok {
				parts := fs.SplitOutflow(downs)
				for _, d := range downs {
					delivered[edge{id, d}] = parts[d]
				}
			} else {
				share := out / float64(len(downs))
				for _, d := range downs {
					delivered[edge{id, d}] = share
				}
			}
		}
	}

	// Record the draw each storage component will release next tick: head-
	// driven conveyors (gates) pull their own discharge, everything else
	// takes what was delivered on its edge.
	for _, id := range h.graph.Order() {
		c, _ := h.graph.Component(id)
		if _, ok := c.(DrawAware); !ok {
			continue
		}
		draw := 0.0
		for _, down := range h.graph.Downstream(id) {
			dc, _ := h.graph.Component(down)
			if _, headDriven := dc.(HeadAware); headDriven {
				draw += outflows[down]
			} else {
				draw += delivered[edge{id, down}]
			}
		}
		h.draws[id] = draw
	}
	return nil
}

func (h *Harness) snapshot() Snapshot {
	snap := make(Snapshot, h.graph.Len())
	for _, id := range h.graph.IDs() {
		c, _ := h.graph.Component(id)
		snap[id] = c.State()
	}
	return snap
}

// Reset restores the harness to its post-Build state: components, agents,
// inflow profiles, clock, history, and metrics. The graph and subscriptions
// are construction-time state and survive.
func (h *Harness) Reset() {
	for _, id := range h.graph.IDs() {
		c, _ := h.graph.Component(id)
		c.Reset()
	}
	for _, a := range h.agents {
		if r, ok := a.(Resettable); ok {
			r.Reset()
		}
	}
	for _, p := range h.inflows {
		if r, ok := p.(Resettable); ok {
			r.Reset()
		}
	}
	h.clock.Reset()
	h.history = make(History, 0, h.clock.Steps())
	h.draws = make(map[string]float64)
	h.metrics = NewMetrics()
	h.ran = false
}
