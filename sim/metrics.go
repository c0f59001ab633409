package sim

import (
	"fmt"
	"sort"
	"time"
)

// Metrics aggregates statistics about one run for final reporting.
type Metrics struct {
	Ticks             int           // ticks executed
	ComponentUpdates  int           // physical Update calls
	MessagesPublished int           // bus Publish calls during the run
	MessagesDelivered int           // handler invocations during the run
	SaturationTicks   int           // controller ticks spent clamped
	WallTime          time.Duration // host time for the run
	Mode              string        // "direct" or "mas"

	FinalState Snapshot // state of every component after the last tick
}

// NewMetrics creates an empty metrics aggregate.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Print displays the aggregate at the end of a run.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Mode                 : %s\n", m.Mode)
	fmt.Printf("Ticks                : %d\n", m.Ticks)
	fmt.Printf("Component updates    : %d\n", m.ComponentUpdates)
	fmt.Printf("Messages published   : %d\n", m.MessagesPublished)
	fmt.Printf("Messages delivered   : %d\n", m.MessagesDelivered)
	fmt.Printf("Saturated ctrl ticks : %d\n", m.SaturationTicks)
	fmt.Printf("Wall time            : %s\n", m.WallTime)
	if len(m.FinalState) == 0 {
		return
	}
	fmt.Println("Final state:")
	ids := make([]string, 0, len(m.FinalState))
	for id := range m.FinalState {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st := m.FinalState[id]
		keys := make([]string, 0, len(st))
		for k := range st {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Printf("  %s:", id)
		for _, k := range keys {
			fmt.Printf(" %s=%.4f", k, st[k])
		}
		fmt.Println()
	}
}
