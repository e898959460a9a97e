package car

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	imufake "github.com/itexpertshire/PWMMotorControl/imu/fake"
	"github.com/itexpertshire/PWMMotorControl/motor"
	motorfake "github.com/itexpertshire/PWMMotorControl/motor/fake"
)

// tickWheels stands in for the encoder interrupts of real hardware: the
// fake wheels only travel when updated, which normally happens inside
// Update but not during calibration dwells.
func tickWheels(left, right *motorfake.Motor) TickFunc {
	return func(ctx context.Context) error {
		left.Update()
		right.Update()
		return nil
	}
}

func TestCalibrateEncoders(t *testing.T) {
	ctx := context.Background()
	c, left, right := newTestCar(t, true, nil)
	left.MinMovingSpeed = 25
	right.MinMovingSpeed = 22
	// coarse enough that one dwell of movement clearly crosses the latch
	// threshold
	left.TicksPerMillimeter = 1
	right.TicksPerMillimeter = 1

	err := c.Calibrate(ctx, tickWheels(left, right))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.IsStopped(), test.ShouldBeTrue)

	// each wheel latched the first speed that actually moved it
	test.That(t, left.StartSpeed(), test.ShouldEqual, 25)
	test.That(t, right.StartSpeed(), test.ShouldEqual, 22)
}

func TestCalibrateIMU(t *testing.T) {
	ctx := context.Background()
	sensor := &imufake.Sensor{StepSpeedCm: 2}
	c, left, right := newTestCar(t, false, sensor)

	err := c.Calibrate(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.IsStopped(), test.ShouldBeTrue)

	// offsets were recomputed before the sweep
	test.That(t, sensor.OffsetsComputed(), test.ShouldBeTrue)

	// a single combined movement assigns the same start speed to both
	test.That(t, left.StartSpeed(), test.ShouldEqual, calibrationFloorSpeed)
	test.That(t, right.StartSpeed(), test.ShouldEqual, left.StartSpeed())
}

func TestCalibrateExternalStop(t *testing.T) {
	ctx := context.Background()
	c, left, right := newTestCar(t, true, nil)
	left.MinMovingSpeed = 200
	right.MinMovingSpeed = 200

	calls := 0
	tick := func(ctx context.Context) error {
		calls++
		if calls == 3 {
			c.Stop(motor.StopModeBrake)
		}
		return nil
	}
	err := c.Calibrate(ctx, tick)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "interrupted")
}

func TestCalibrateNeverMoves(t *testing.T) {
	ctx := context.Background()
	logger := golog.NewTestLogger(t)

	left := &motorfake.Motor{Name: "left", Logger: logger, Encoded: true, MinMovingSpeed: 255}
	right := &motorfake.Motor{Name: "right", Logger: logger, Encoded: true, MinMovingSpeed: 255}
	c, err := NewCar(Config{
		Left:             left,
		Right:            right,
		UpdateInterval:   -1,
		CalibrationDwell: time.Microsecond,
		CalibrationPoll:  -1,
	}, logger)
	test.That(t, err, test.ShouldBeNil)

	err = c.Calibrate(ctx, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "without movement")
	test.That(t, left.StartSpeed(), test.ShouldEqual, 0)
	test.That(t, c.IsStopped(), test.ShouldBeTrue)
}

func TestCalibrateWithoutSensorsFails(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCar(t, false, nil)
	err := c.Calibrate(ctx, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCalibrateContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _, _ := newTestCar(t, true, nil)
	err := c.Calibrate(ctx, nil)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}
