package car

import (
	"context"
	"time"

	"github.com/itexpertshire/PWMMotorControl/motor"
)

const (
	// slowDownAngleDegree is how many degrees before the rotation target
	// the cruise speed drops to start speed to limit overshoot.
	slowDownAngleDegree = 10
	// turnOverrunHalfDegree compensates the sensor-to-stop latency; we
	// brake this many half degrees before the target.
	turnOverrunHalfDegree = 2
)

// SensorReport carries per-field dirty bits from one sensor poll, so
// callers can refresh displays only for values that actually changed.
type SensorReport struct {
	AngleChanged    bool
	SpeedChanged    bool
	DistanceChanged bool
}

// Any reports whether any cached value changed.
func (r SensorReport) Any() bool {
	return r.AngleChanged || r.SpeedChanged || r.DistanceChanged
}

// PollSensors drains the IMU for a fresh sample and refreshes the cached
// turn angle, speed and distance. Readings are ignored until the IMU's
// offset calibration has run.
func (c *Car) PollSensors() SensorReport {
	var report SensorReport
	if c.imuSensor == nil || !c.imuSensor.PollNewSample() || !c.imuSensor.OffsetsComputed() {
		return report
	}
	if angle := c.imuSensor.TurnAngleHalfDegree(); angle != c.imuAngleHalfDegrees {
		c.imuAngleHalfDegrees = angle
		report.AngleChanged = true
	}
	if speed := abs(c.imuSensor.SpeedCmPerSecond()); speed != c.imuSpeedCm {
		c.imuSpeedCm = speed
		report.SpeedChanged = true
	}
	if distance := abs(c.imuSensor.DistanceMillimeter()); distance != c.imuDistanceMm {
		c.imuDistanceMm = distance
		report.DistanceChanged = true
	}
	return report
}

// Update advances the closed-loop supervision by one tick and reports
// whether motion is still in progress. It must be called at a fast rate
// while any command is outstanding.
func (c *Car) Update() bool {
	still, _ := c.UpdateWithReport()
	return still
}

// UpdateWithReport is Update plus the dirty bits of the sensor poll it
// performed.
func (c *Car) UpdateWithReport() (bool, SensorReport) {
	var report SensorReport
	if c.imuSensor != nil {
		report = c.PollSensors()
	}

	if c.requestedRotationDegrees != 0 {
		// An external stop clears the goal; the angle would never
		// advance again otherwise.
		if c.IsStopped() {
			c.requestedRotationDegrees = 0
			return false, report
		}
		// Ramps are deliberately not used here; the asymmetric wheel
		// roles make ramp timing unreliable for rotations.
		requested := 2 * abs(c.requestedRotationDegrees)
		turned := abs(c.imuAngleHalfDegrees)
		if turned+turnOverrunHalfDegree >= requested {
			c.Stop(motor.StopModeBrake)
			c.requestedRotationDegrees = 0
			return false, report
		}
		if turned+2*slowDownAngleDegree >= requested {
			// close to the target; drop to start speed so the stop
			// overruns by a degree or two at most
			c.ChangeSpeedCompensated(c.right.StartSpeed())
		}
		return true, report
	}

	if c.requestedDistanceMm != 0 {
		if c.IsStopped() {
			c.requestedDistanceMm = 0
			return false, report
		}
		c.tracker.superviseDistance(c)
	}

	still := c.right.Update()
	still = c.left.Update() || still
	return still, report
}

// updateTick runs the caller callback and one supervisor tick.
func (c *Car) updateTick(ctx context.Context, tick TickFunc) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if tick != nil {
		if err := tick(ctx); err != nil {
			return false, err
		}
	}
	return c.Update(), nil
}

// pause waits one update interval on the injected clock, or just checks for
// cancellation when pacing is disabled. Reports false when the context is
// done.
func (c *Car) pause(ctx context.Context) bool {
	if c.updateInterval <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(c.updateInterval):
		return true
	}
}

// WaitUntilStopped polls the supervisor until the car is fully stopped and
// no goal remains, invoking tick each iteration.
func (c *Car) WaitUntilStopped(ctx context.Context, tick TickFunc) error {
	for {
		still, err := c.updateTick(ctx, tick)
		if err != nil {
			return err
		}
		if !still {
			break
		}
		if !c.pause(ctx) {
			return ctx.Err()
		}
	}
	c.mode = c.right.CurrentMode()
	return nil
}

// WaitForDriveSpeed polls the supervisor until both wheels reached drive
// speed, or the car stopped.
func (c *Car) WaitForDriveSpeed(ctx context.Context, tick TickFunc) error {
	for {
		still, err := c.updateTick(ctx, tick)
		if err != nil {
			return err
		}
		if !still || c.IsState(motor.RampStateDrive) {
			return nil
		}
		if !c.pause(ctx) {
			return ctx.Err()
		}
	}
}

// DelayAndUpdate keeps the supervisor ticking for at least the given
// duration, e.g. to drive a fixed time rather than a fixed distance.
func (c *Car) DelayAndUpdate(ctx context.Context, d time.Duration) error {
	start := c.clock.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Update()
		if c.clock.Now().Sub(start) >= d {
			return nil
		}
		if !c.pause(ctx) {
			return ctx.Err()
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
