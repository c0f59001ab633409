package sim

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Snapshot maps component ID to a copy of that component's state at the end
// of one tick.
type Snapshot map[string]State

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, st := range s {
		out[id] = st.Clone()
	}
	return out
}

// History is the append-only sequence of per-tick snapshots produced by a
// run. It is created empty at Build, appended once per tick after the
// physical phase, and read-only after the run ends. Its length equals
// floor(duration/dt) for a successful run.
type History []Snapshot

// At returns the snapshot for a tick number.
func (h History) At(tick int) (Snapshot, bool) {
	if tick < 0 || tick >= len(h) {
		return nil, false
	}
	return h[tick], true
}

// AtTime returns the snapshot whose tick covers elapsed time t for step dt.
func (h History) AtTime(t, dt float64) (Snapshot, bool) {
	if dt <= 0 || t < 0 {
		return nil, false
	}
	return h.At(int(math.Floor(t / dt)))
}

// Series extracts the per-tick values of one state field of one component.
// Ticks where the component or field is absent are skipped.
func (h History) Series(componentID, field string) []float64 {
	out := make([]float64, 0, len(h))
	for _, snap := range h {
		if st, ok := snap[componentID]; ok {
			if v, ok := st[field]; ok {
				out = append(out, v)
			}
		}
	}
	return out
}

// SeriesBounds returns the minimum and maximum of a state field over the
// whole run. ok is false when the series is empty.
func (h History) SeriesBounds(componentID, field string) (lo, hi float64, ok bool) {
	s := h.Series(componentID, field)
	if len(s) == 0 {
		return 0, 0, false
	}
	return floats.Min(s), floats.Max(s), true
}
