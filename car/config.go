package car

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/itexpertshire/PWMMotorControl/imu"
	"github.com/itexpertshire/PWMMotorControl/motor"
)

// Degrees-to-millimeters turn geometry defaults. These are calibration
// inputs, not derived values; four wheel cars need a larger factor because
// the non-steered axle drags during turns.
const (
	defaultFactorDegreeToMillimeter2WD = 2.3
	defaultFactorDegreeToMillimeter4WD = 5.5
)

const (
	defaultRampDecelerationTimes2 = 4000 // 2 * deceleration in mm/s^2
	defaultUpdateInterval         = 5 * time.Millisecond
	defaultCalibrationDwell       = 200 * time.Millisecond
	defaultCalibrationPoll        = 10 * time.Millisecond
)

// Config describes a two-wheel differential-drive car.
type Config struct {
	// Left and Right are the two wheel motors.
	Left  motor.Motor
	Right motor.Motor

	// IMU is an optional inertial odometry source. When present and offset
	// calibrated, rotations are angle-driven and, absent encoders, distance
	// driving is supervised from integrated travel.
	IMU imu.Sensor

	// FourWheels selects the default turn geometry factor for a four wheel
	// chassis with two driven wheels per side.
	FourWheels bool

	// FactorDegreeToMillimeter overrides the default wheel travel per degree
	// of car rotation. Only used when rotations are not angle-driven.
	FactorDegreeToMillimeter float64

	// RampDecelerationTimes2 is twice the assumed deceleration in mm/s^2,
	// used to predict braking distance from IMU speed.
	RampDecelerationTimes2 int

	// UpdateInterval paces the blocking wait loops. Zero keeps the
	// default; negative disables pacing entirely, which tests use to
	// poll as fast as they can.
	UpdateInterval time.Duration

	// CalibrationDwell is how long each speed step of the start-speed sweep
	// is held. CalibrationPoll paces sensor polling within the dwell, with
	// the same zero/negative convention as UpdateInterval.
	CalibrationDwell time.Duration
	CalibrationPoll  time.Duration

	// Clock is the time source for coast-down delays and calibration
	// dwells. Defaults to the wall clock.
	Clock clock.Clock
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Left == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "left")
	}
	if cfg.Right == nil {
		return goutils.NewConfigValidationFieldRequiredError(path, "right")
	}
	if cfg.FactorDegreeToMillimeter < 0 {
		return goutils.NewConfigValidationError(path,
			errors.New("factor_degree_to_millimeter may not be negative"))
	}
	if cfg.RampDecelerationTimes2 < 0 {
		return goutils.NewConfigValidationError(path,
			errors.New("ramp_deceleration_times_2 may not be negative"))
	}
	return nil
}

// resolveTracker picks the motion tracking strategy once, from the sensing
// capabilities present at construction.
func resolveTracker(cfg *Config) motionTracker {
	if cfg.Left.Properties().EncoderEquipped && cfg.Right.Properties().EncoderEquipped {
		return encoderTracker{}
	}
	if cfg.IMU != nil {
		return imuTracker{}
	}
	return openLoopTracker{}
}
