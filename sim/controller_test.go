package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPID_OutputClampedToBounds(t *testing.T) {
	pid := NewPIDController(10.0, 0, 0, 5.0, 0.0, 1.0)

	// Large positive error saturates high, large negative error saturates low.
	assert.Equal(t, 1.0, pid.Compute(0.0, 1.0))
	assert.Equal(t, 0.0, pid.Compute(100.0, 1.0))
}

func TestPID_AntiWindup_IntegralFrozenWhileSaturatedHigh(t *testing.T) {
	// GIVEN a controller saturated at max_output with positive error
	pid := NewPIDController(1.0, 0.5, 0, 10.0, 0.0, 1.0)

	out := pid.Compute(0.0, 1.0)
	assert.Equal(t, 1.0, out)
	frozen := pid.Integral()

	// WHEN it stays saturated for many steps
	for i := 0; i < 50; i++ {
		out = pid.Compute(0.0, 1.0)
		assert.Equal(t, 1.0, out)

		// THEN the integral does not grow in the direction of saturation
		assert.Equal(t, frozen, pid.Integral())
	}
	assert.True(t, pid.Saturated())
	assert.Equal(t, 51, pid.SaturationTicks())
}

func TestPID_AntiWindup_IntegralUnwindsTowardRelease(t *testing.T) {
	// GIVEN a controller saturated high with accumulated integral
	pid := NewPIDController(0.1, 0.5, 0, 10.0, -1.0, 1.0)
	for i := 0; i < 10; i++ {
		pid.Compute(5.0, 1.0)
	}
	before := pid.Integral()

	// WHEN the error flips sign while still saturated, the integral may
	// move away from the rail
	pid.Compute(30.0, 1.0)
	assert.Less(t, pid.Integral(), before)
}

func TestPID_ConvergesOnIntegratorPlant(t *testing.T) {
	// GIVEN a proportional controller driving a pure integrator plant
	pid := NewPIDController(0.5, 0.0, 0.0, 5.0, 0.0, 1.0)
	measurement := 0.0
	dt := 1.0

	prevAbsErr := math.Abs(pid.Setpoint() - measurement)
	leftSaturation := false
	for i := 0; i < 60; i++ {
		out := pid.Compute(measurement, dt)
		measurement += out * dt

		absErr := math.Abs(pid.Setpoint() - measurement)
		if leftSaturation {
			// THEN |measurement - setpoint| is non-increasing once the
			// output left saturation
			assert.LessOrEqual(t, absErr, prevAbsErr, "step %d", i)
		}
		if !pid.Saturated() {
			leftSaturation = true
		}
		prevAbsErr = absErr
	}
	assert.InDelta(t, 5.0, measurement, 0.01)
}

func TestPID_DerivativeUsesErrorDifference(t *testing.T) {
	pid := NewPIDController(0.0, 0.0, 1.0, 0.0, -100.0, 100.0)

	// First step: error -1, previous error 0 => derivative -1.
	assert.InDelta(t, -1.0, pid.Compute(1.0, 1.0), 1e-12)
	// Error unchanged => derivative 0.
	assert.InDelta(t, 0.0, pid.Compute(1.0, 1.0), 1e-12)
}

func TestPID_Reset_ZeroesAccumulators(t *testing.T) {
	pid := NewPIDController(1.0, 1.0, 1.0, 5.0, -10.0, 10.0)
	pid.Compute(1.0, 1.0)
	pid.Compute(2.0, 1.0)

	pid.Reset()

	assert.Equal(t, 0.0, pid.Integral())
	assert.Equal(t, 0, pid.SaturationTicks())
	// After reset the first compute behaves like a fresh controller.
	fresh := NewPIDController(1.0, 1.0, 1.0, 5.0, -10.0, 10.0)
	assert.Equal(t, fresh.Compute(1.0, 1.0), pid.Compute(1.0, 1.0))
}

func TestPID_SetSetpoint_TakesEffectNextCompute(t *testing.T) {
	pid := NewPIDController(1.0, 0.0, 0.0, 5.0, -100.0, 100.0)
	assert.InDelta(t, 4.0, pid.Compute(1.0, 1.0), 1e-12)

	pid.SetSetpoint(10.0)
	assert.InDelta(t, 9.0, pid.Compute(1.0, 1.0), 1e-12)
}
