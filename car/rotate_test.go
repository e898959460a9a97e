package car

import (
	"context"
	"testing"

	"go.viam.com/test"

	imufake "github.com/itexpertshire/PWMMotorControl/imu/fake"
	"github.com/itexpertshire/PWMMotorControl/motor"
)

func TestStartRotateTurnStyles(t *testing.T) {
	t.Run("forward turn drives only the outer wheel", func(t *testing.T) {
		c, left, right := newTestCar(t, true, nil)
		c.StartRotate(90, TurnForward, false)
		test.That(t, right.CurrentMode(), test.ShouldEqual, motor.ModeForward)
		test.That(t, right.CurrentSpeed(), test.ShouldBeGreaterThan, 0)
		test.That(t, left.CurrentSpeed(), test.ShouldEqual, 0)
	})

	t.Run("backward turn drives only the inner wheel", func(t *testing.T) {
		c, left, right := newTestCar(t, true, nil)
		c.StartRotate(90, TurnBackward, false)
		test.That(t, left.CurrentMode(), test.ShouldEqual, motor.ModeBackward)
		test.That(t, left.CurrentSpeed(), test.ShouldBeGreaterThan, 0)
		test.That(t, right.CurrentSpeed(), test.ShouldEqual, 0)
	})

	t.Run("in place drives both wheels in opposite directions", func(t *testing.T) {
		c, left, right := newTestCar(t, true, nil)
		c.StartRotate(90, TurnInPlace, false)
		test.That(t, right.CurrentMode(), test.ShouldEqual, motor.ModeForward)
		test.That(t, left.CurrentMode(), test.ShouldEqual, motor.ModeBackward)
	})

	t.Run("negative degrees swap the wheel roles", func(t *testing.T) {
		c, left, right := newTestCar(t, true, nil)
		c.StartRotate(-90, TurnInPlace, false)
		test.That(t, left.CurrentMode(), test.ShouldEqual, motor.ModeForward)
		test.That(t, right.CurrentMode(), test.ShouldEqual, motor.ModeBackward)
	})
}

func TestRotateInPlaceSymmetry(t *testing.T) {
	ctx := context.Background()

	run := func(degrees int) (leftMm, rightMm int, leftMode, rightMode motor.Mode) {
		c, left, right := newTestCar(t, true, nil)
		c.StartRotate(degrees, TurnInPlace, false)
		leftMode = left.CurrentMode()
		rightMode = right.CurrentMode()
		err := c.WaitUntilStopped(ctx, nil)
		test.That(t, err, test.ShouldBeNil)
		return left.DistanceMillimeter(), right.DistanceMillimeter(), leftMode, rightMode
	}

	lMm, rMm, lMode, rMode := run(90)
	lMmNeg, rMmNeg, lModeNeg, rModeNeg := run(-90)

	// same magnitudes, swapped roles
	test.That(t, lMm, test.ShouldEqual, rMmNeg)
	test.That(t, rMm, test.ShouldEqual, lMmNeg)
	test.That(t, lMode, test.ShouldEqual, rModeNeg)
	test.That(t, rMode, test.ShouldEqual, lModeNeg)

	// each wheel covers half of the geometry distance (90 * 2.3 / 2)
	test.That(t, rMm, test.ShouldBeBetween, 80, 120)
}

func TestRotateSlowSpeed(t *testing.T) {
	t.Run("boosts to 1.5x start speed", func(t *testing.T) {
		c, _, right := newTestCar(t, true, nil)
		c.SetStartSpeed(50)
		c.StartRotate(90, TurnForward, true)
		test.That(t, right.CurrentSpeed(), test.ShouldEqual, 75)
	})

	t.Run("skips the boost near the top of the range", func(t *testing.T) {
		c, _, right := newTestCar(t, true, nil)
		c.SetStartSpeed(200)
		c.SetDriveSpeed(210)
		c.StartRotate(90, TurnForward, true)
		test.That(t, right.CurrentSpeed(), test.ShouldEqual, 210)
	})
}

func TestRotateZeroIsNoOp(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCar(t, true, nil)
	err := c.Rotate(ctx, 0, TurnInPlace, false, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.IsStopped(), test.ShouldBeTrue)
}

func TestRotateIMU(t *testing.T) {
	sensor := &imufake.Sensor{OffsetsReady: true, StepAngleHalfDegree: 2}
	c, left, right := newTestCar(t, false, sensor)

	c.StartRotate(90, TurnInPlace, false)
	// angle-driven: full speed, no distance target on the wheels
	test.That(t, right.CurrentMode(), test.ShouldEqual, motor.ModeForward)
	test.That(t, left.CurrentMode(), test.ShouldEqual, motor.ModeBackward)
	test.That(t, right.CurrentSpeed(), test.ShouldEqual, 90)

	slowedAtHalfDegrees := 0
	polls := 0
	for polls = 1; polls < 200; polls++ {
		if !c.Update() {
			break
		}
		if slowedAtHalfDegrees == 0 && right.CurrentSpeed() == right.StartSpeed() {
			slowedAtHalfDegrees = sensor.TurnAngleHalfDegree()
		}
	}

	// stop exactly when 2*angle >= 2*requested - overrun
	test.That(t, sensor.TurnAngleHalfDegree(), test.ShouldEqual, 2*90-turnOverrunHalfDegree)
	test.That(t, c.IsStopped(), test.ShouldBeTrue)
	test.That(t, c.Mode(), test.ShouldEqual, motor.ModeBrake)

	// cruise dropped to start speed right at the slow-down threshold
	test.That(t, slowedAtHalfDegrees, test.ShouldEqual, 2*90-2*slowDownAngleDegree)

	// the goal is gone, further updates report stopped
	test.That(t, c.Update(), test.ShouldBeFalse)
}

func TestRotateIMUExternalStop(t *testing.T) {
	ctx := context.Background()
	sensor := &imufake.Sensor{OffsetsReady: true, StepAngleHalfDegree: 1}
	c, _, _ := newTestCar(t, false, sensor)

	polls := 0
	tick := func(ctx context.Context) error {
		polls++
		if polls == 10 {
			c.Stop(motor.StopModeBrake)
		}
		return nil
	}
	err := c.Rotate(ctx, 180, TurnInPlace, false, tick)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.IsStopped(), test.ShouldBeTrue)
	test.That(t, c.Update(), test.ShouldBeFalse)
}
