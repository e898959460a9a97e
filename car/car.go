// Package car coordinates the two wheel motors of a differential-drive car:
// consistent direction changes, dual-wheel speed and ramp fan-out, distance
// and rotation planning under encoder, IMU or open-loop sensing, a polled
// closed-loop supervisor and start-speed calibration.
package car

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.uber.org/multierr"

	"github.com/itexpertshire/PWMMotorControl/imu"
	"github.com/itexpertshire/PWMMotorControl/motor"
)

// TickFunc is invoked once per iteration of every blocking wait so the host
// stays responsive. Returning an error aborts the wait; stopping the car from
// inside the callback ends the wait on its next poll.
type TickFunc func(ctx context.Context) error

const (
	maxSpeed = 255

	storeSlotLeft  = 0
	storeSlotRight = 1
)

// Car is the controller for two independently driven wheels. All methods
// must be called from a single control-flow context; the car performs no
// locking of its own.
type Car struct {
	logger golog.Logger
	clock  clock.Clock

	left   motor.Motor
	right  motor.Motor
	wheels [2]motor.Motor

	imuSensor imu.Sensor
	tracker   motionTracker

	mode motor.Mode

	factorDegreeToMillimeter float64
	rampDecelerationTimes2   int

	updateInterval   time.Duration
	calibrationDwell time.Duration
	calibrationPoll  time.Duration

	// Outstanding goals; mutually exclusive, reset by each new command.
	requestedDistanceMm      int
	requestedRotationDegrees int

	// Cached IMU odometry, updated by the supervisor on fresh samples.
	imuAngleHalfDegrees int
	imuSpeedCm          int
	imuDistanceMm       int
}

// NewCar validates the config and builds a car controller. The sensing
// regime (encoder, IMU or open loop) is resolved once here.
func NewCar(cfg Config, logger golog.Logger) (*Car, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}

	c := &Car{
		logger:                   logger,
		clock:                    cfg.Clock,
		left:                     cfg.Left,
		right:                    cfg.Right,
		wheels:                   [2]motor.Motor{cfg.Left, cfg.Right},
		imuSensor:                cfg.IMU,
		tracker:                  resolveTracker(&cfg),
		mode:                     motor.ModeRelease,
		factorDegreeToMillimeter: cfg.FactorDegreeToMillimeter,
		rampDecelerationTimes2:   cfg.RampDecelerationTimes2,
		updateInterval:           cfg.UpdateInterval,
		calibrationDwell:         cfg.CalibrationDwell,
		calibrationPoll:          cfg.CalibrationPoll,
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.factorDegreeToMillimeter == 0 {
		if cfg.FourWheels {
			c.factorDegreeToMillimeter = defaultFactorDegreeToMillimeter4WD
		} else {
			c.factorDegreeToMillimeter = defaultFactorDegreeToMillimeter2WD
		}
	}
	if c.rampDecelerationTimes2 == 0 {
		c.rampDecelerationTimes2 = defaultRampDecelerationTimes2
	}
	if c.updateInterval == 0 {
		c.updateInterval = defaultUpdateInterval
	}
	if c.calibrationDwell == 0 {
		c.calibrationDwell = defaultCalibrationDwell
	}
	if c.calibrationPoll == 0 {
		c.calibrationPoll = defaultCalibrationPoll
	}
	return c, nil
}

// handleDirectionChange is the direction gate, the only place the car-level
// mode moves to forward or backward. If a wheel is still running in another
// direction it brake-stops both wheels and waits out the coast-down before
// committing the new mode. Reports whether a stop-and-wait happened.
func (c *Car) handleDirectionChange(requested motor.Direction) bool {
	requestedMode := requested.Mode()
	if c.mode == requestedMode {
		return false
	}

	stopped := false
	tMaxSpeed := c.left.CurrentSpeed()
	if s := c.right.CurrentSpeed(); s > tMaxSpeed {
		tMaxSpeed = s
	}
	if tMaxSpeed > 0 {
		c.logger.Debugf("direction change %s -> %s while moving, stopping first", c.mode, requestedMode)
		c.Stop(motor.StopModeBrake)
		// coast-down, proportional to how fast we were going
		c.clock.Sleep(time.Duration(tMaxSpeed/2) * time.Millisecond)
		stopped = true
	}
	c.mode = requestedMode
	return stopped
}

// SetSpeed commands both wheels to a raw speed, bypassing compensation but
// not the direction gate.
func (c *Car) SetSpeed(speed uint8, dir motor.Direction) {
	c.handleDirectionChange(dir)
	for _, w := range c.wheels {
		w.SetSpeed(speed, dir)
	}
}

// SetSignedSpeed commands both wheels directly; the sign selects the
// direction. No gate, no compensation.
func (c *Car) SetSignedSpeed(speed int) {
	for _, w := range c.wheels {
		w.SetSignedSpeed(speed)
	}
}

// SetSpeedCompensated commands both wheels to the speed reduced by their
// stored per-wheel compensation, through the direction gate.
func (c *Car) SetSpeedCompensated(speed uint8, dir motor.Direction) {
	c.handleDirectionChange(dir)
	for _, w := range c.wheels {
		w.SetSpeedCompensated(speed, dir)
	}
}

// SetSignedSpeedCompensated is the signed-speed variant of
// SetSpeedCompensated. Like SetSignedSpeed it bypasses the direction gate.
func (c *Car) SetSignedSpeedCompensated(speed int) {
	for _, w := range c.wheels {
		w.SetSignedSpeedCompensated(speed)
	}
}

// SetSpeedCompensatedSteering commands compensated speed with a live
// steering offset: a positive steer derates the left wheel, a negative one
// the right wheel, floored at zero.
func (c *Car) SetSpeedCompensatedSteering(speed uint8, dir motor.Direction, steer int) {
	c.handleDirectionChange(dir)

	derated := c.left
	if steer < 0 {
		steer = -steer
		c.left.SetSpeedCompensated(speed, dir)
		derated = c.right
	} else {
		c.right.SetSpeedCompensated(speed, dir)
	}

	if int(speed) >= steer {
		derated.SetSpeedCompensated(speed-uint8(steer), dir)
	} else {
		derated.SetSpeedCompensated(0, dir)
	}
}

// ChangeSpeedCompensated re-commands both wheels at a new compensated speed,
// keeping their current direction. Only moving wheels are touched, so a
// one-wheel turn stays a one-wheel turn.
func (c *Car) ChangeSpeedCompensated(speed uint8) {
	for _, w := range c.wheels {
		mode := w.CurrentMode()
		if mode != motor.ModeForward && mode != motor.ModeBackward {
			continue
		}
		dir := motor.DirectionForward
		if mode == motor.ModeBackward {
			dir = motor.DirectionBackward
		}
		if w.CurrentSpeed() > 0 {
			w.SetSpeedCompensated(speed, dir)
		}
	}
}

// ChangeSpeedCompensation applies a signed compensation delta favoring the
// right wheel. Existing bias on the opposite wheel is consumed first, so the
// two biases always move in compensating directions and never both grow.
// Biases saturate at the top of the PWM range instead of wrapping.
func (c *Car) ChangeSpeedCompensation(delta int) {
	leftBias := int(c.left.SpeedCompensation())
	rightBias := int(c.right.SpeedCompensation())

	if delta >= 0 {
		take := leftBias
		if take > delta {
			take = delta
		}
		leftBias -= take
		rightBias = clampToByte(rightBias + delta - take)
	} else {
		delta = -delta
		take := rightBias
		if take > delta {
			take = delta
		}
		rightBias -= take
		leftBias = clampToByte(leftBias + delta - take)
	}

	c.left.SetSpeedCompensation(uint8(leftBias))
	c.right.SetSpeedCompensation(uint8(rightBias))
}

func clampToByte(v int) int {
	if v > maxSpeed {
		return maxSpeed
	}
	return v
}

// SetValuesForFixedDistanceDriving sets start and drive speed on both wheels
// and splits a signed right-compensation between them.
func (c *Car) SetValuesForFixedDistanceDriving(startSpeed, driveSpeed uint8, speedCompensationRight int) {
	if speedCompensationRight >= 0 {
		c.right.SetValuesForFixedDistanceDriving(startSpeed, driveSpeed, uint8(speedCompensationRight))
		c.left.SetValuesForFixedDistanceDriving(startSpeed, driveSpeed, 0)
	} else {
		c.right.SetValuesForFixedDistanceDriving(startSpeed, driveSpeed, 0)
		c.left.SetValuesForFixedDistanceDriving(startSpeed, driveSpeed, uint8(-speedCompensationRight))
	}
}

// SetDefaultsForFixedDistanceDriving restores stock tuning on both wheels.
func (c *Car) SetDefaultsForFixedDistanceDriving() {
	for _, w := range c.wheels {
		w.SetDefaultsForFixedDistanceDriving()
	}
}

// SetStartSpeed sets the start speed on both wheels.
func (c *Car) SetStartSpeed(speed uint8) {
	for _, w := range c.wheels {
		w.SetStartSpeed(speed)
	}
}

// SetDriveSpeed sets the cruise speed on both wheels.
func (c *Car) SetDriveSpeed(speed uint8) {
	for _, w := range c.wheels {
		w.SetDriveSpeed(speed)
	}
}

// SetMillimeterPerSecond sets the open-loop speed estimate on both wheels.
func (c *Car) SetMillimeterPerSecond(mmPerSecond int) {
	for _, w := range c.wheels {
		w.SetMillimeterPerSecond(mmPerSecond)
	}
}

// SetFactorDegreeToMillimeter overrides the turn geometry factor.
func (c *Car) SetFactorDegreeToMillimeter(factor float64) {
	c.factorDegreeToMillimeter = factor
}

// Stop stops both wheels immediately and adopts the resulting stop mode as
// the car mode.
func (c *Car) Stop(mode motor.StopMode) {
	for _, w := range c.wheels {
		w.Stop(mode)
	}
	c.mode = c.right.CurrentMode()
}

// SetStopMode sets the default stop mode on both wheels.
func (c *Car) SetStopMode(mode motor.StopMode) {
	for _, w := range c.wheels {
		w.SetStopMode(mode)
	}
}

// ResetControlValues clears encoder-derived state and outstanding goals.
func (c *Car) ResetControlValues() {
	for _, w := range c.wheels {
		w.ResetEncoderValues()
	}
	c.requestedDistanceMm = 0
	c.requestedRotationDegrees = 0
	c.resetIMUCache()
}

// IsStopped reports whether both wheels are at zero speed.
func (c *Car) IsStopped() bool {
	for _, w := range c.wheels {
		if w.CurrentSpeed() != 0 {
			return false
		}
	}
	return true
}

// IsState reports whether both wheels are in the given ramp state.
func (c *Car) IsState(state motor.RampState) bool {
	for _, w := range c.wheels {
		if w.RampState() != state {
			return false
		}
	}
	return true
}

// IsRamping reports whether either wheel is mid-ramp. While true, Update
// must be called at a fast rate; callers use it to defer expensive work.
func (c *Car) IsRamping() bool {
	for _, w := range c.wheels {
		switch w.RampState() {
		case motor.RampStateUp, motor.RampStateDown:
			return true
		case motor.RampStateStopped, motor.RampStateDrive:
		}
	}
	return false
}

// Mode returns the car-level direction or brake mode.
func (c *Car) Mode() motor.Mode { return c.mode }

// DistanceMillimeter reports car travel since the last reset, from the best
// available source for the sensing regime.
func (c *Car) DistanceMillimeter() int {
	return c.tracker.distanceMillimeter(c)
}

// BrakingDistanceMillimeter predicts travel before a full stop from the
// current speed.
func (c *Car) BrakingDistanceMillimeter() int {
	return c.tracker.brakingDistanceMillimeter(c)
}

// ReadFromStore loads both wheels' tuning values from their slots.
func (c *Car) ReadFromStore(store motor.Store) error {
	return multierr.Combine(
		c.left.ReadFromStore(store, storeSlotLeft),
		c.right.ReadFromStore(store, storeSlotRight),
	)
}

// WriteToStore saves both wheels' tuning values to their slots.
func (c *Car) WriteToStore(store motor.Store) error {
	return multierr.Combine(
		c.left.WriteToStore(store, storeSlotLeft),
		c.right.WriteToStore(store, storeSlotRight),
	)
}

// imuReady reports whether IMU odometry may be trusted.
func (c *Car) imuReady() bool {
	return c.imuSensor != nil && c.imuSensor.OffsetsComputed()
}

func (c *Car) resetIMUCache() {
	c.imuAngleHalfDegrees = 0
	c.imuSpeedCm = 0
	c.imuDistanceMm = 0
}
