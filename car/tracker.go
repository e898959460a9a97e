package car

import "github.com/itexpertshire/PWMMotorControl/motor"

// motionTracker is the per-regime strategy for distance driving and
// odometry, resolved once at construction. Keeping the three sensing
// regimes behind one interface keeps regime conditionals out of the
// planner and supervisor.
type motionTracker interface {
	// startDistance commands the wheels for a distance drive. The
	// direction gate has already run.
	startDistance(c *Car, speed uint8, distanceMm int, dir motor.Direction)
	// superviseDistance runs the per-tick distance closed loop, if the
	// regime has one.
	superviseDistance(c *Car)
	distanceMillimeter(c *Car) int
	brakingDistanceMillimeter(c *Car) int
}

// encoderTracker delegates distance targets to the wheels' own
// distance-aware ramp logic; no car-level supervision is needed.
type encoderTracker struct{}

func (encoderTracker) startDistance(c *Car, speed uint8, distanceMm int, dir motor.Direction) {
	for _, w := range c.wheels {
		w.StartGoDistance(speed, distanceMm, dir)
	}
}

func (encoderTracker) superviseDistance(*Car) {}

func (encoderTracker) distanceMillimeter(c *Car) int {
	return c.right.DistanceMillimeter()
}

func (encoderTracker) brakingDistanceMillimeter(c *Car) int {
	return c.right.BrakingDistanceMillimeter()
}

// imuTracker ramps the wheels up and leaves completion to the supervisor,
// since the wheels cannot sense position themselves.
type imuTracker struct{}

func (imuTracker) startDistance(c *Car, speed uint8, distanceMm int, dir motor.Direction) {
	c.requestedDistanceMm = distanceMm
	for _, w := range c.wheels {
		w.StartRampUpSpeed(speed, dir)
	}
}

func (t imuTracker) superviseDistance(c *Car) {
	switch c.right.RampState() {
	case motor.RampStateUp, motor.RampStateDrive, motor.RampStateDown:
	case motor.RampStateStopped:
		return
	}

	if c.imuDistanceMm >= c.requestedDistanceMm {
		c.requestedDistanceMm = 0
		c.Stop(motor.StopModeBrake)
		return
	}
	// ramp down once the braking distance would carry us to the target
	if c.right.RampState() != motor.RampStateDown &&
		c.imuDistanceMm+t.brakingDistanceMillimeter(c) >= c.requestedDistanceMm {
		c.StartRampDown()
	}
}

func (imuTracker) distanceMillimeter(c *Car) int {
	return c.imuDistanceMm
}

func (imuTracker) brakingDistanceMillimeter(c *Car) int {
	// distance = v^2 / (2 * deceleration), with v in cm/s and the
	// deceleration constant pre-doubled in mm/s^2. The constant is
	// scaled up rather than divided down so small configured values
	// cannot truncate to a zero divisor.
	return (100 * c.imuSpeedCm * c.imuSpeedCm) / c.rampDecelerationTimes2
}

// openLoopTracker has no position sensing at all; the wheels convert the
// distance to a drive time from their configured speed estimate.
type openLoopTracker struct{}

func (openLoopTracker) startDistance(c *Car, speed uint8, distanceMm int, dir motor.Direction) {
	for _, w := range c.wheels {
		w.StartGoDistance(speed, distanceMm, dir)
	}
}

func (openLoopTracker) superviseDistance(*Car) {}

func (openLoopTracker) distanceMillimeter(*Car) int { return 0 }

func (openLoopTracker) brakingDistanceMillimeter(c *Car) int {
	return c.right.BrakingDistanceMillimeter()
}
