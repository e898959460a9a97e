package car

import (
	"context"

	"github.com/pkg/errors"

	"github.com/itexpertshire/PWMMotorControl/motor"
)

const (
	// calibrationFloorSpeed is where the sweep starts; everything below
	// never moves any chassis we know of.
	calibrationFloorSpeed = 20
	// calibrationMoveTicks is the encoder count confirming real wheel
	// movement within one dwell, about 3 cm of travel.
	calibrationMoveTicks = 6
	// calibrationMinSpeedCm confirms car movement on the IMU.
	calibrationMinSpeedCm = 10
)

// Calibrate discovers each wheel's minimum moving speed by sweeping the
// commanded speed upward in unit steps and watching for first movement.
// With encoders each wheel latches independently; with only an IMU the
// first combined car movement assigns the same start speed to both wheels.
//
// The tick callback runs every poll so the host stays responsive; stopping
// the car from inside it aborts the sweep. Reaching the top of the speed
// range with a wheel that never moved is reported as an error and leaves
// that wheel's start speed at zero.
func (c *Car) Calibrate(ctx context.Context, tick TickFunc) error {
	c.Stop(motor.StopModeKeep)
	c.ResetControlValues()
	for _, w := range c.wheels {
		w.SetStartSpeed(0)
	}

	encoderBased := c.left.Properties().EncoderEquipped && c.right.Properties().EncoderEquipped
	if !encoderBased {
		if c.imuSensor == nil {
			return errors.New("calibration needs wheel encoders or an IMU")
		}
		// the car is stopped, so this is a safe moment for offsets
		if err := c.imuSensor.ResetOffsetDataAndWait(ctx); err != nil {
			return err
		}
		c.imuSensor.ResetCarData()
		c.resetIMUCache()
	}

	for speed := uint8(calibrationFloorSpeed); speed < maxSpeed; speed++ {
		// raise only the wheels that have not latched a start speed yet
		if c.right.StartSpeed() == 0 {
			c.right.SetSpeed(speed, motor.DirectionForward)
		}
		if c.left.StartSpeed() == 0 {
			c.left.SetSpeed(speed, motor.DirectionForward)
		}

		if err := c.holdCalibrationStep(ctx, tick, encoderBased); err != nil {
			c.Stop(motor.StopModeKeep)
			return err
		}

		if encoderBased {
			if c.right.StartSpeed() == 0 && c.right.EncoderCount() > calibrationMoveTicks {
				c.logger.Debugf("right wheel moves at %d", speed)
				c.right.SetStartSpeed(speed)
			}
			if c.left.StartSpeed() == 0 && c.left.EncoderCount() > calibrationMoveTicks {
				c.logger.Debugf("left wheel moves at %d", speed)
				c.left.SetStartSpeed(speed)
			}
			if c.left.StartSpeed() != 0 && c.right.StartSpeed() != 0 {
				c.Stop(motor.StopModeKeep)
				return nil
			}
		} else if abs(c.imuSensor.SpeedCmPerSecond()) >= calibrationMinSpeedCm {
			c.logger.Debugf("car moves at %d", speed)
			c.SetStartSpeed(speed)
			c.Stop(motor.StopModeKeep)
			return nil
		}
	}

	c.Stop(motor.StopModeKeep)
	return errors.Errorf("calibration reached the top of the speed range without movement (left=%d right=%d)",
		c.left.StartSpeed(), c.right.StartSpeed())
}

// holdCalibrationStep holds the current sweep step for the configured dwell,
// polling the callback and, without encoders, the IMU.
func (c *Car) holdCalibrationStep(ctx context.Context, tick TickFunc, encoderBased bool) error {
	start := c.clock.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tick != nil {
			if err := tick(ctx); err != nil {
				return err
			}
		}
		if c.IsStopped() {
			return errors.New("calibration interrupted by external stop")
		}
		if !encoderBased {
			c.PollSensors()
		}
		if c.clock.Now().Sub(start) >= c.calibrationDwell {
			return nil
		}
		if c.calibrationPoll > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.clock.After(c.calibrationPoll):
			}
		}
	}
}
