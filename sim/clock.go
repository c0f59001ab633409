package sim

import "math"

// Clock tracks simulation time for a run: a fixed step dt, a total duration,
// and the current tick. It is owned exclusively by the harness.
type Clock struct {
	Dt       float64
	Duration float64
	Tick     int
	Now      float64
}

// NewClock creates a clock positioned at t=0.
func NewClock(duration, dt float64) Clock {
	return Clock{Dt: dt, Duration: duration}
}

// Steps returns the total number of ticks in a full run: floor(duration/dt).
func (c Clock) Steps() int {
	if c.Dt <= 0 {
		return 0
	}
	return int(math.Floor(c.Duration / c.Dt))
}

// Advance moves the clock forward one tick.
func (c *Clock) Advance() {
	c.Tick++
	c.Now = float64(c.Tick) * c.Dt
}

// Reset rewinds the clock to t=0.
func (c *Clock) Reset() {
	c.Tick = 0
	c.Now = 0
}
