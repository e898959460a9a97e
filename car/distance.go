package car

import (
	"context"

	"github.com/itexpertshire/PWMMotorControl/motor"
)

// StartRampUp starts ramping both wheels to their drive speed, through the
// direction gate.
func (c *Car) StartRampUp(dir motor.Direction) {
	c.handleDirectionChange(dir)
	for _, w := range c.wheels {
		w.StartRampUp(dir)
	}
}

// StartRampUpSpeed starts ramping both wheels to the requested speed.
func (c *Car) StartRampUpSpeed(speed uint8, dir motor.Direction) {
	c.handleDirectionChange(dir)
	for _, w := range c.wheels {
		w.StartRampUpSpeed(speed, dir)
	}
}

// StartRampUpAndWait ramps to the requested speed and blocks until both
// wheels are at drive speed.
func (c *Car) StartRampUpAndWait(ctx context.Context, speed uint8, dir motor.Direction, tick TickFunc) error {
	c.StartRampUpSpeed(speed, dir)
	return c.WaitForDriveSpeed(ctx, tick)
}

// StartRampUpAndWaitForDriveSpeed ramps to the configured drive speed and
// blocks until both wheels reach it.
func (c *Car) StartRampUpAndWaitForDriveSpeed(ctx context.Context, dir motor.Direction, tick TickFunc) error {
	c.StartRampUp(dir)
	return c.WaitForDriveSpeed(ctx, tick)
}

// StartRampDown starts decelerating both wheels. No-op when stopped.
func (c *Car) StartRampDown() {
	if c.IsStopped() {
		return
	}
	for _, w := range c.wheels {
		w.StartRampDown()
	}
}

// StopAndWait ramps both wheels down and blocks until the car has stopped.
func (c *Car) StopAndWait(ctx context.Context, tick TickFunc) error {
	if c.IsStopped() {
		return nil
	}
	for _, w := range c.wheels {
		w.StartRampDown()
	}
	return c.WaitUntilStopped(ctx, tick)
}

// StartGoDistance starts driving the requested distance at the given speed.
// A zero distance is treated as already complete; a negative one drives the
// magnitude in the opposite direction.
//
// With encoders the wheels manage the distance target themselves; with only
// IMU odometry the wheels are ramped up and the supervisor ends the drive;
// open loop the wheels convert the distance to a drive time.
func (c *Car) StartGoDistance(speed uint8, distanceMm int, dir motor.Direction) {
	if distanceMm == 0 {
		return
	}
	if distanceMm < 0 {
		distanceMm = -distanceMm
		dir = dir.Opposite()
	}

	c.handleDirectionChange(dir)
	if c.imuReady() {
		c.imuSensor.ResetCarData()
		c.resetIMUCache()
	}
	c.tracker.startDistance(c, speed, distanceMm, dir)
}

// StartGoDistanceAtDriveSpeed starts a distance drive at the configured
// drive speed.
func (c *Car) StartGoDistanceAtDriveSpeed(distanceMm int, dir motor.Direction) {
	c.StartGoDistance(c.right.DriveSpeed(), distanceMm, dir)
}

// StartGoDistanceSigned starts a distance drive whose sign encodes the
// direction: positive forward, negative backward.
func (c *Car) StartGoDistanceSigned(distanceMm int) {
	if distanceMm < 0 {
		c.StartGoDistanceAtDriveSpeed(-distanceMm, motor.DirectionBackward)
		return
	}
	c.StartGoDistanceAtDriveSpeed(distanceMm, motor.DirectionForward)
}

// GoDistance drives the requested distance at drive speed and blocks until
// the car stops.
func (c *Car) GoDistance(ctx context.Context, distanceMm int, dir motor.Direction, tick TickFunc) error {
	c.StartGoDistanceAtDriveSpeed(distanceMm, dir)
	return c.WaitUntilStopped(ctx, tick)
}

// GoDistanceSigned is the signed-distance blocking variant.
func (c *Car) GoDistanceSigned(ctx context.Context, distanceMm int, tick TickFunc) error {
	c.StartGoDistanceSigned(distanceMm)
	return c.WaitUntilStopped(ctx, tick)
}
