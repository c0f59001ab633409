package sim

import (
	"github.com/sirupsen/logrus"
)

// Controller is the feedback law owned by a control agent. Compute is the
// only operation: measurement in, clamped control output out. Controllers
// are stateful (integral terms, filters) and single-owner.
type Controller interface {
	Compute(measurement, dt float64) float64
	Reset()
	Setpoint() float64
	SetSetpoint(sp float64)
}

// PIDController is the reference Controller: proportional-integral-derivative
// with output clamping and anti-windup. While the output is saturated the
// integral term is not allowed to grow further in the direction of
// saturation; every deployment runs unattended for hundreds of steps, so
// windup protection is mandatory, not optional.
type PIDController struct {
	Kp, Ki, Kd float64

	MinOutput float64
	MaxOutput float64

	setpoint  float64
	integral  float64
	prevError float64

	saturated       bool
	saturationTicks int
}

// NewPIDController creates a PID controller with the given gains, setpoint,
// and output bounds.
func NewPIDController(kp, ki, kd, setpoint, minOutput, maxOutput float64) *PIDController {
	return &PIDController{
		Kp:        kp,
		Ki:        ki,
		Kd:        kd,
		MinOutput: minOutput,
		MaxOutput: maxOutput,
		setpoint:  setpoint,
	}
}

// Setpoint returns the current setpoint.
func (c *PIDController) Setpoint() float64 { return c.setpoint }

// SetSetpoint replaces the setpoint. The construction-time setpoint is only
// the initial value; supervisory commands override it mid-run.
func (c *PIDController) SetSetpoint(sp float64) { c.setpoint = sp }

// Compute advances the controller one step and returns the clamped output.
func (c *PIDController) Compute(measurement, dt float64) float64 {
	err := c.setpoint - measurement

	derivative := 0.0
	if dt > 0 {
		derivative = (err - c.prevError) / dt
	}

	integral := c.integral + err*dt
	raw := c.Kp*err + c.Ki*integral + c.Kd*derivative

	out := raw
	if out > c.MaxOutput {
		out = c.MaxOutput
	} else if out < c.MinOutput {
		out = c.MinOutput
	}

	if out == raw {
		c.integral = integral
		if c.saturated {
			c.saturated = false
			logrus.Debugf("pid: left saturation, output %.4f", out)
		}
	} else {
		// Anti-windup: accept the new integral only if it unwinds, i.e.
		// its contribution pushes the output away from the active rail.
		if (out == c.MaxOutput && c.Ki*err < 0) || (out == c.MinOutput && c.Ki*err > 0) {
			c.integral = integral
		}
		c.saturationTicks++
		if !c.saturated {
			c.saturated = true
			logrus.Warnf("pid: output saturated at %.4f (raw %.4f)", out, raw)
		}
	}

	c.prevError = err
	return out
}

// Reset zeroes the integral and previous-error accumulators. Gains, bounds,
// and the current setpoint are kept.
func (c *PIDController) Reset() {
	c.integral = 0
	c.prevError = 0
	c.saturated = false
	c.saturationTicks = 0
}

// Integral exposes the accumulated integral term.
func (c *PIDController) Integral() float64 { return c.integral }

// Saturated reports whether the last Compute clamped its output.
func (c *PIDController) Saturated() bool { return c.saturated }

// SaturationTicks returns how many Compute calls clamped their output.
func (c *PIDController) SaturationTicks() int { return c.saturationTicks }
