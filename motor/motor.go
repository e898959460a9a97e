// Package motor defines the contract for a single PWM-driven wheel motor,
// its ramp state machine, and the tuning values it persists.
//
// A Motor owns its own PWM/ramp progression, driven by a fixed-rate tick
// through Update. The car-level controller in package car coordinates two
// of them; it never touches PWM directly.
package motor

// Direction is the direction a motor is commanded to turn in.
type Direction int

const (
	// DirectionForward drives the wheel so the car moves forward.
	DirectionForward Direction = iota
	// DirectionBackward drives the wheel so the car moves backward.
	DirectionBackward
)

// Opposite returns the reversed direction.
func (d Direction) Opposite() Direction {
	if d == DirectionForward {
		return DirectionBackward
	}
	return DirectionForward
}

// Mode returns the car/motor mode equivalent of the direction.
func (d Direction) Mode() Mode {
	if d == DirectionForward {
		return ModeForward
	}
	return ModeBackward
}

func (d Direction) String() string {
	if d == DirectionForward {
		return "forward"
	}
	return "backward"
}

// Mode is the direction-or-brake mode of a motor (and, at the car level,
// of the whole car). A stopped motor holds either ModeBrake or ModeRelease.
type Mode int

const (
	// ModeRelease leaves the motor freewheeling.
	ModeRelease Mode = iota
	// ModeForward is active forward drive.
	ModeForward
	// ModeBackward is active backward drive.
	ModeBackward
	// ModeBrake shorts the windings for active braking.
	ModeBrake
)

func (m Mode) String() string {
	switch m {
	case ModeForward:
		return "forward"
	case ModeBackward:
		return "backward"
	case ModeBrake:
		return "brake"
	default:
		return "release"
	}
}

// StopMode selects what a stop does with the motor windings.
type StopMode int

const (
	// StopModeKeep stops using the motor's previously configured stop mode.
	StopModeKeep StopMode = iota
	// StopModeBrake stops with active braking.
	StopModeBrake
	// StopModeRelease stops by freewheeling.
	StopModeRelease
)

// Mode returns the motor mode a stop with this stop mode settles into,
// given the configured default for StopModeKeep.
func (s StopMode) Mode(deflt Mode) Mode {
	switch s {
	case StopModeBrake:
		return ModeBrake
	case StopModeRelease:
		return ModeRelease
	default:
		return deflt
	}
}

// RampState is the phase of a motor's speed ramp.
type RampState int

const (
	// RampStateStopped means the motor is not moving and no ramp is active.
	RampStateStopped RampState = iota
	// RampStateUp means the motor is accelerating towards drive speed.
	RampStateUp
	// RampStateDrive means the motor holds its drive (cruise) speed.
	RampStateDrive
	// RampStateDown means the motor is decelerating towards a stop.
	RampStateDown
)

func (s RampState) String() string {
	switch s {
	case RampStateUp:
		return "ramp-up"
	case RampStateDrive:
		return "drive"
	case RampStateDown:
		return "ramp-down"
	default:
		return "stopped"
	}
}

// Properties describes the sensing capabilities of a motor.
type Properties struct {
	// EncoderEquipped is true when the motor has a working quadrature
	// encoder and can measure its own traveled distance.
	EncoderEquipped bool
}

// TuningValues are the per-wheel constants discovered by calibration and
// persisted across runs.
type TuningValues struct {
	StartSpeed        uint8 `yaml:"start_speed"`
	DriveSpeed        uint8 `yaml:"drive_speed"`
	SpeedCompensation uint8 `yaml:"speed_compensation"`
}

// Store persists TuningValues by slot. Slot assignment is up to the caller;
// the car controller uses slot 0 for the left wheel and slot 1 for the right.
type Store interface {
	ReadSlot(slot int) (TuningValues, error)
	WriteSlot(slot int, values TuningValues) error
}

// A Motor is one independently driven wheel. Implementations are expected to
// be used from a single control-flow context; none of the methods block.
//
// Update must be called at a fast, roughly fixed rate whenever the motor is
// ramping, otherwise ramp timing drifts. It reports whether the motor still
// expects further updates (i.e. is still moving or mid-ramp).
type Motor interface {
	// SetSpeed commands a raw PWM speed, no compensation, no ramp.
	SetSpeed(speed uint8, dir Direction)
	// SetSignedSpeed commands a raw speed whose sign selects the direction.
	SetSignedSpeed(speed int)
	// SetSpeedCompensated commands speed reduced by the stored per-wheel
	// compensation and updates the ramp bookkeeping.
	SetSpeedCompensated(speed uint8, dir Direction)
	// SetSignedSpeedCompensated is the signed-speed variant of
	// SetSpeedCompensated.
	SetSignedSpeedCompensated(speed int)

	StartRampUp(dir Direction)
	StartRampUpSpeed(speed uint8, dir Direction)
	StartRampDown()

	// StartGoDistance starts a drive over distanceMm at the given speed.
	// Encoder-equipped motors stop themselves on target; others convert the
	// distance to a drive time. A zero distance is a no-op.
	StartGoDistance(speed uint8, distanceMm int, dir Direction)

	// Update advances the ramp/drive state machine by one tick and reports
	// whether the motor is still moving.
	Update() bool

	Stop(mode StopMode)
	SetStopMode(mode StopMode)

	SetDefaultsForFixedDistanceDriving()
	SetValuesForFixedDistanceDriving(startSpeed, driveSpeed, compensation uint8)
	SetStartSpeed(speed uint8)
	SetDriveSpeed(speed uint8)
	SetSpeedCompensation(compensation uint8)
	// SetMillimeterPerSecond sets the speed estimate used to convert
	// distances into drive times on motors without encoders.
	SetMillimeterPerSecond(mmPerSecond int)

	// DistanceMillimeter reports the distance traveled since the encoder
	// values were last reset. Zero when not encoder-equipped.
	DistanceMillimeter() int
	// BrakingDistanceMillimeter predicts the travel remaining before a full
	// stop once deceleration begins, from the current speed.
	BrakingDistanceMillimeter() int
	ResetEncoderValues()

	ReadFromStore(store Store, slot int) error
	WriteToStore(store Store, slot int) error

	CurrentSpeed() uint8
	CurrentMode() Mode
	RampState() RampState
	StartSpeed() uint8
	DriveSpeed() uint8
	SpeedCompensation() uint8
	EncoderCount() int
	Properties() Properties
}
