package car

import (
	"context"

	"github.com/itexpertshire/PWMMotorControl/motor"
)

// TurnStyle selects which wheels move, and in which direction, during a
// rotation.
type TurnStyle int

const (
	// TurnForward drives the wheel on the outside of the turn forward,
	// the inside wheel stays stopped.
	TurnForward TurnStyle = iota
	// TurnBackward backs the car around the turn: the inside wheel
	// drives backward, the outside wheel stays stopped.
	TurnBackward
	// TurnInPlace drives outside forward and inside backward in equal
	// measure, rotating about the car center.
	TurnInPlace
)

func (s TurnStyle) String() string {
	switch s {
	case TurnForward:
		return "turn-forward"
	case TurnBackward:
		return "turn-backward"
	default:
		return "turn-in-place"
	}
}

const (
	// imuRotationTravelBoundMm is the per-wheel travel commanded when the
	// IMU angle is authoritative; it only serves as a safety timeout of
	// around ten wheel turns, the supervisor stops the turn well before.
	imuRotationTravelBoundMm = 2000

	// slowTurnBoostLimit skips the 1.5x start-speed boost when the start
	// speed is close to the top of the PWM range already.
	slowTurnBoostLimit = 160
)

// StartRotate sets distances and speeds on both wheels to turn the
// requested angle. Positive degrees turn left, negative turn right. With
// useSlowSpeed the wheels turn at 1.5 times their start speed instead of
// drive speed, trading speed for rotational accuracy.
func (c *Car) StartRotate(rotationDegrees int, style TurnStyle, useSlowSpeed bool) {
	if rotationDegrees == 0 {
		return
	}

	c.logger.Debugf("rotate %d degrees, %s, slow=%t", rotationDegrees, style, useSlowSpeed)

	imuTracking := c.imuReady()
	if imuTracking {
		c.imuSensor.ResetCarData()
		c.resetIMUCache()
		c.requestedRotationDegrees = rotationDegrees
	}

	// A negative turn swaps which physical wheel plays the outer role, so
	// everything below works on an unsigned magnitude.
	outer, inner := c.right, c.left
	if rotationDegrees < 0 {
		rotationDegrees = -rotationDegrees
		outer, inner = c.left, c.right
	}

	var travelMm int
	if imuTracking {
		travelMm = imuRotationTravelBoundMm
	} else {
		travelMm = int(float64(rotationDegrees)*c.factorDegreeToMillimeter + 0.5)
	}

	var outerMm, innerMm int
	switch style {
	case TurnForward:
		outerMm = travelMm
	case TurnBackward:
		innerMm = travelMm
	case TurnInPlace:
		outerMm = travelMm / 2
		innerMm = travelMm / 2
	}

	outerSpeed := outer.DriveSpeed()
	innerSpeed := inner.DriveSpeed()
	if useSlowSpeed {
		if s := outer.StartSpeed(); s < slowTurnBoostLimit {
			outerSpeed = s + s/2
		}
		if s := inner.StartSpeed(); s < slowTurnBoostLimit {
			innerSpeed = s + s/2
		}
	}

	if imuTracking {
		// no distance argument; the supervisor ends the turn on angle
		if outerMm > 0 {
			outer.SetSpeedCompensated(outerSpeed, motor.DirectionForward)
		}
		if innerMm > 0 {
			inner.SetSpeedCompensated(innerSpeed, motor.DirectionBackward)
		}
		return
	}
	outer.StartGoDistance(outerSpeed, outerMm, motor.DirectionForward)
	inner.StartGoDistance(innerSpeed, innerMm, motor.DirectionBackward)
}

// Rotate turns the requested angle and blocks until the rotation is done.
func (c *Car) Rotate(ctx context.Context, rotationDegrees int, style TurnStyle, useSlowSpeed bool, tick TickFunc) error {
	if rotationDegrees == 0 {
		return nil
	}
	c.StartRotate(rotationDegrees, style, useSlowSpeed)
	return c.WaitUntilStopped(ctx, tick)
}
