package car

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.viam.com/test"

	imufake "github.com/itexpertshire/PWMMotorControl/imu/fake"
	"github.com/itexpertshire/PWMMotorControl/motor"
	motorfake "github.com/itexpertshire/PWMMotorControl/motor/fake"
)

func TestPollSensorsDirtyBits(t *testing.T) {
	t.Run("fresh values set their bits", func(t *testing.T) {
		sensor := &imufake.Sensor{OffsetsReady: true}
		sensor.Feed(
			imufake.Sample{TurnAngleHalfDegree: 4, SpeedCmPerSecond: 12, DistanceMillimeter: 30},
			imufake.Sample{TurnAngleHalfDegree: 4, SpeedCmPerSecond: 12, DistanceMillimeter: 30},
			imufake.Sample{TurnAngleHalfDegree: 6, SpeedCmPerSecond: 12, DistanceMillimeter: 45},
		)
		c, _, _ := newTestCar(t, false, sensor)

		report := c.PollSensors()
		test.That(t, report.Any(), test.ShouldBeTrue)
		test.That(t, report.AngleChanged, test.ShouldBeTrue)
		test.That(t, report.SpeedChanged, test.ShouldBeTrue)
		test.That(t, report.DistanceChanged, test.ShouldBeTrue)

		// identical sample, nothing changed
		report = c.PollSensors()
		test.That(t, report.Any(), test.ShouldBeFalse)

		report = c.PollSensors()
		test.That(t, report.AngleChanged, test.ShouldBeTrue)
		test.That(t, report.SpeedChanged, test.ShouldBeFalse)
		test.That(t, report.DistanceChanged, test.ShouldBeTrue)
	})

	t.Run("no sample, no bits", func(t *testing.T) {
		sensor := &imufake.Sensor{OffsetsReady: true}
		c, _, _ := newTestCar(t, false, sensor)
		test.That(t, c.PollSensors().Any(), test.ShouldBeFalse)
	})

	t.Run("uncalibrated offsets suppress all updates", func(t *testing.T) {
		sensor := &imufake.Sensor{}
		sensor.Feed(imufake.Sample{TurnAngleHalfDegree: 10, SpeedCmPerSecond: 10, DistanceMillimeter: 10})
		c, _, _ := newTestCar(t, false, sensor)
		test.That(t, c.PollSensors().Any(), test.ShouldBeFalse)
		test.That(t, c.DistanceMillimeter(), test.ShouldEqual, 0)
	})
}

func TestUpdateIdleCar(t *testing.T) {
	c, _, _ := newTestCar(t, false, nil)
	test.That(t, c.Update(), test.ShouldBeFalse)

	c.SetSpeed(50, motor.DirectionForward)
	test.That(t, c.Update(), test.ShouldBeTrue)
	c.Stop(motor.StopModeBrake)
	test.That(t, c.Update(), test.ShouldBeFalse)
}

func TestDelayAndUpdate(t *testing.T) {
	ctx := context.Background()
	c, left, _ := newTestCar(t, true, nil)

	c.SetSpeed(100, motor.DirectionForward)
	start := time.Now()
	err := c.DelayAndUpdate(ctx, 10*time.Millisecond)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, time.Since(start), test.ShouldBeGreaterThanOrEqualTo, 10*time.Millisecond)
	// the wheels kept being updated while waiting
	test.That(t, left.DistanceMillimeter(), test.ShouldBeGreaterThan, 0)
	c.Stop(motor.StopModeBrake)
}

func TestWaitUntilStoppedCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, _, _ := newTestCar(t, false, nil)

	c.SetSpeed(80, motor.DirectionForward)
	cancel()
	err := c.WaitUntilStopped(ctx, nil)
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestPacingUsesInjectedClock(t *testing.T) {
	ctx := context.Background()
	logger := golog.NewTestLogger(t)
	mock := clock.NewMock()

	left := &motorfake.Motor{Name: "left", Logger: logger, Encoded: true}
	right := &motorfake.Motor{Name: "right", Logger: logger, Encoded: true}
	c, err := NewCar(Config{
		Left:           left,
		Right:          right,
		UpdateInterval: 5 * time.Millisecond,
		Clock:          mock,
	}, logger)
	test.That(t, err, test.ShouldBeNil)
	c.SetDefaultsForFixedDistanceDriving()

	c.StartGoDistanceSigned(200)
	done := make(chan error, 1)
	go func() {
		done <- c.WaitUntilStopped(ctx, nil)
	}()

	// only mock time moves; if pacing ran on the wall clock this would
	// never finish
	for i := 0; i < 1000; i++ {
		mock.Add(5 * time.Millisecond)
		select {
		case err := <-done:
			test.That(t, err, test.ShouldBeNil)
			test.That(t, c.IsStopped(), test.ShouldBeTrue)
			return
		default:
		}
	}
	t.Fatal("drive did not finish under the mock clock")
}

func TestTickErrorAbortsWait(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCar(t, true, nil)

	c.StartGoDistanceSigned(5000)
	boom := func(context.Context) error { return context.DeadlineExceeded }
	err := c.WaitUntilStopped(ctx, boom)
	test.That(t, err, test.ShouldBeError, context.DeadlineExceeded)
	c.Stop(motor.StopModeBrake)
}
