package physical

import (
	"fmt"
	"math"

	"github.com/hydronet-sim/hydronet-sim/sim"
)

const gravity = 9.81

// GateParams configures a Gate.
type GateParams struct {
	DischargeCoeff  float64 // defaults to 0.6
	Width           float64 // gate width, must be positive
	MaxOpening      float64 // defaults to 1.0
	MaxRateOfChange float64 // opening slew limit per unit time; 0 = unlimited
}

// Gate is a head-driven conveyor: its discharge follows the orifice equation
// Q = Cd * width * opening * sqrt(2*g*head), with head supplied by the
// harness from the upstream component (sim.HeadAware).
//
// A gate becomes message-aware by passing a bus and an action topic at
// construction: it subscribes there and buffers the latest target opening
// for its own Update. Without a bus the opening holds its initial value,
// which is what direct-mode runs use.
type Gate struct {
	opening   float64
	target    float64
	head      float64
	discharge float64
	inflow    float64

	cd         float64
	width      float64
	maxOpening float64
	maxRate    float64

	initOpening float64
}

// NewGate creates a gate with the given initial opening. actionKey defaults
// to sim.DefaultActionKey.
func NewGate(initial sim.State, params GateParams, bus *sim.Bus, actionTopic, actionKey string) (*Gate, error) {
	if params.Width <= 0 {
		return nil, fmt.Errorf("gate width must be positive, got %v", params.Width)
	}
	if params.DischargeCoeff == 0 {
		params.DischargeCoeff = 0.6
	}
	if params.MaxOpening == 0 {
		params.MaxOpening = 1.0
	}
	g := &Gate{
		opening:     initial["opening"],
		target:      initial["opening"],
		cd:          params.DischargeCoeff,
		width:       params.Width,
		maxOpening:  params.MaxOpening,
		maxRate:     params.MaxRateOfChange,
		initOpening: initial["opening"],
	}
	if bus != nil && actionTopic != "" {
		if actionKey == "" {
			actionKey = sim.DefaultActionKey
		}
		key := actionKey
		bus.Subscribe(actionTopic, func(msg sim.Message) error {
			if v, ok := msg[key]; ok {
				g.target = v
			}
			return nil
		})
	}
	return g, nil
}

// State returns opening and discharge.
func (g *Gate) State() sim.State {
	return sim.State{"opening": g.opening, "discharge": g.discharge}
}

// SetInflow records the delivered inflow. A gate conveys by head, so the
// value is informational only.
func (g *Gate) SetInflow(q float64) { g.inflow = q }

// SetUpstreamHead sets the driving head for the next Update.
func (g *Gate) SetUpstreamHead(h float64) { g.head = h }

// Outflow returns the discharge of the most recent Update.
func (g *Gate) Outflow() float64 { return g.discharge }

// Update slews the opening toward its buffered target, bounded by the rate
// limit and the physical range, then computes the orifice discharge.
func (g *Gate) Update(dt float64) error {
	delta := g.target - g.opening
	if g.maxRate > 0 {
		limit := g.maxRate * dt
		if delta > limit {
			delta = limit
		} else if delta < -limit {
			delta = -limit
		}
	}
	g.opening += delta
	if g.opening < 0 {
		g.opening = 0
	} else if g.opening > g.maxOpening {
		g.opening = g.maxOpening
	}

	head := g.head
	if head < 0 {
		head = 0
	}
	g.discharge = g.cd * g.width * g.opening * math.Sqrt(2*gravity*head)
	return nil
}

// Reset restores the construction-time opening and clears buffered signals.
func (g *Gate) Reset() {
	g.opening = g.initOpening
	g.target = g.initOpening
	g.head = 0
	g.discharge = 0
	g.inflow = 0
}
