// Package fake implements a deterministic fake wheel motor.
//
// The fake advances its ramp state machine one step per Update call instead
// of on a hardware timer, so tests drive it tick by tick and get repeatable
// distances. Travel is simulated as speed times a configurable
// millimeter-per-speed-unit factor per tick, with an optional static
// friction floor below which the wheel does not move at all.
package fake

import (
	"github.com/edaniels/golog"

	"github.com/itexpertshire/PWMMotorControl/motor"
)

const (
	// rampDelta is the speed change applied per update while ramping.
	rampDelta = 16

	defaultStartSpeed = 45
	defaultDriveSpeed = 90

	defaultMMPerSpeedUnit     = 0.1
	defaultTicksPerMillimeter = 0.2

	// updatesPerSecond is the fixed update rate the hardware timer would
	// give, used to convert drive times into update counts.
	updatesPerSecond = 100
)

// Motor is a fake motor.Motor. The exported fields configure the simulation
// and may be set before first use.
type Motor struct {
	Name   string
	Logger golog.Logger

	// Encoded enables the simulated quadrature encoder.
	Encoded bool
	// TicksPerMillimeter converts simulated travel into encoder counts.
	TicksPerMillimeter float64
	// MMPerSpeedUnit is the simulated travel per update per PWM unit.
	MMPerSpeedUnit float64
	// MinMovingSpeed is the static friction floor; commanded speeds below
	// it produce no simulated travel.
	MinMovingSpeed uint8
	// MillimeterPerSecond is the open-loop speed estimate used to convert
	// distances to drive time when no encoder is present.
	MillimeterPerSecond int

	currentSpeed   uint8
	requestedSpeed uint8
	mode           motor.Mode
	defaultStop    motor.Mode
	rampState      motor.RampState

	startSpeed        uint8
	driveSpeed        uint8
	speedCompensation uint8

	traveledMm   float64
	targetActive bool
	remainingMm  float64

	// time-based target, used for distance drives without an encoder
	timedTarget      bool
	timedUpdatesLeft int
}

var _ motor.Motor = (*Motor)(nil)

func (m *Motor) debugf(format string, args ...interface{}) {
	if m.Logger != nil {
		m.Logger.Debugf(format, args...)
	}
}

func (m *Motor) mmPerSpeedUnit() float64 {
	if m.MMPerSpeedUnit == 0 {
		return defaultMMPerSpeedUnit
	}
	return m.MMPerSpeedUnit
}

func (m *Motor) ticksPerMillimeter() float64 {
	if m.TicksPerMillimeter == 0 {
		return defaultTicksPerMillimeter
	}
	return m.TicksPerMillimeter
}

// SetSpeed commands a raw speed with no compensation and no ramping.
func (m *Motor) SetSpeed(speed uint8, dir motor.Direction) {
	m.debugf("%s: set speed %d %s", m.Name, speed, dir)
	m.mode = dir.Mode()
	m.currentSpeed = speed
	m.requestedSpeed = speed
	if speed == 0 {
		m.Stop(motor.StopModeKeep)
		return
	}
	m.rampState = motor.RampStateDrive
}

// SetSignedSpeed commands a raw speed whose sign selects the direction.
func (m *Motor) SetSignedSpeed(speed int) {
	dir := motor.DirectionForward
	if speed < 0 {
		speed = -speed
		dir = motor.DirectionBackward
	}
	if speed > 255 {
		speed = 255
	}
	m.SetSpeed(uint8(speed), dir)
}

// SetSpeedCompensated commands the speed reduced by the stored compensation,
// floored at zero.
func (m *Motor) SetSpeedCompensated(speed uint8, dir motor.Direction) {
	if speed > m.speedCompensation {
		speed -= m.speedCompensation
	} else {
		speed = 0
	}
	m.SetSpeed(speed, dir)
}

// SetSignedSpeedCompensated is the signed variant of SetSpeedCompensated.
func (m *Motor) SetSignedSpeedCompensated(speed int) {
	dir := motor.DirectionForward
	if speed < 0 {
		speed = -speed
		dir = motor.DirectionBackward
	}
	if speed > 255 {
		speed = 255
	}
	m.SetSpeedCompensated(uint8(speed), dir)
}

// StartRampUp starts ramping towards the configured drive speed.
func (m *Motor) StartRampUp(dir motor.Direction) {
	m.StartRampUpSpeed(m.driveSpeed, dir)
}

// StartRampUpSpeed starts ramping towards the requested speed.
func (m *Motor) StartRampUpSpeed(speed uint8, dir motor.Direction) {
	m.mode = dir.Mode()
	m.requestedSpeed = speed
	if m.currentSpeed == 0 {
		m.currentSpeed = m.startSpeed
		if m.currentSpeed > speed {
			m.currentSpeed = speed
		}
	}
	m.rampState = motor.RampStateUp
}

// StartRampDown starts decelerating towards a stop. No-op when stopped.
func (m *Motor) StartRampDown() {
	if m.rampState == motor.RampStateStopped {
		return
	}
	m.rampState = motor.RampStateDown
}

// StartGoDistance starts a drive over distanceMm. A zero distance is treated
// as already complete. Without an encoder and with a configured speed
// estimate the distance is converted into a drive time instead of a position
// target, so the motor stops after the estimated duration regardless of
// actual travel.
func (m *Motor) StartGoDistance(speed uint8, distanceMm int, dir motor.Direction) {
	if distanceMm == 0 {
		return
	}
	if distanceMm < 0 {
		distanceMm = -distanceMm
		dir = dir.Opposite()
	}
	if !m.Encoded && m.MillimeterPerSecond > 0 {
		m.timedTarget = true
		m.timedUpdatesLeft = distanceMm * updatesPerSecond / m.MillimeterPerSecond
	} else {
		m.targetActive = true
		m.remainingMm = float64(distanceMm)
	}
	m.StartRampUpSpeed(speed, dir)
}

// Update advances the state machine one tick and reports whether the motor
// is still moving.
func (m *Motor) Update() bool {
	switch m.rampState {
	case motor.RampStateStopped:
		return false
	case motor.RampStateUp:
		next := int(m.currentSpeed) + rampDelta
		if next >= int(m.requestedSpeed) {
			m.currentSpeed = m.requestedSpeed
			m.rampState = motor.RampStateDrive
		} else {
			m.currentSpeed = uint8(next)
		}
	case motor.RampStateDown:
		next := int(m.currentSpeed) - rampDelta
		if next <= int(m.startSpeed) || next <= 0 {
			m.Stop(motor.StopModeKeep)
			return false
		}
		m.currentSpeed = uint8(next)
	case motor.RampStateDrive:
	}

	m.advanceTravel()

	if m.timedTarget {
		m.timedUpdatesLeft--
		if m.timedUpdatesLeft <= 0 {
			m.timedTarget = false
			m.Stop(motor.StopModeKeep)
			return false
		}
	}
	if m.targetActive {
		if m.remainingMm <= 0 {
			m.targetActive = false
			m.Stop(motor.StopModeKeep)
			return false
		}
		if m.rampState != motor.RampStateDown && m.remainingMm <= float64(m.BrakingDistanceMillimeter()) {
			m.StartRampDown()
		}
	}
	return m.currentSpeed > 0
}

func (m *Motor) advanceTravel() {
	if m.currentSpeed < m.MinMovingSpeed {
		return
	}
	mm := float64(m.currentSpeed) * m.mmPerSpeedUnit()
	m.traveledMm += mm
	if m.targetActive {
		m.remainingMm -= mm
	}
}

// Stop stops the motor immediately and clears any distance target.
func (m *Motor) Stop(mode motor.StopMode) {
	m.debugf("%s: stopped", m.Name)
	m.currentSpeed = 0
	m.requestedSpeed = 0
	m.targetActive = false
	m.remainingMm = 0
	m.timedTarget = false
	m.timedUpdatesLeft = 0
	m.rampState = motor.RampStateStopped
	m.mode = mode.Mode(m.defaultStop)
}

// SetStopMode sets the mode used by stops with StopModeKeep.
func (m *Motor) SetStopMode(mode motor.StopMode) {
	m.defaultStop = mode.Mode(m.defaultStop)
}

// SetDefaultsForFixedDistanceDriving restores the stock tuning values.
func (m *Motor) SetDefaultsForFixedDistanceDriving() {
	m.startSpeed = defaultStartSpeed
	m.driveSpeed = defaultDriveSpeed
	m.speedCompensation = 0
}

// SetValuesForFixedDistanceDriving sets all tuning values at once.
func (m *Motor) SetValuesForFixedDistanceDriving(startSpeed, driveSpeed, compensation uint8) {
	m.startSpeed = startSpeed
	m.driveSpeed = driveSpeed
	m.speedCompensation = compensation
}

// SetStartSpeed sets the minimum speed overcoming static friction.
func (m *Motor) SetStartSpeed(speed uint8) { m.startSpeed = speed }

// SetDriveSpeed sets the cruise speed.
func (m *Motor) SetDriveSpeed(speed uint8) { m.driveSpeed = speed }

// SetSpeedCompensation sets the per-wheel drift compensation.
func (m *Motor) SetSpeedCompensation(compensation uint8) { m.speedCompensation = compensation }

// SetMillimeterPerSecond sets the open-loop speed estimate.
func (m *Motor) SetMillimeterPerSecond(mmPerSecond int) { m.MillimeterPerSecond = mmPerSecond }

// DistanceMillimeter reports simulated travel since the last encoder reset.
func (m *Motor) DistanceMillimeter() int {
	if !m.Encoded {
		return 0
	}
	return int(m.traveledMm)
}

// BrakingDistanceMillimeter simulates a full ramp-down from the current
// speed and reports the travel it would cover.
func (m *Motor) BrakingDistanceMillimeter() int {
	var mm float64
	for s := int(m.currentSpeed); s > 0; s -= rampDelta {
		if s >= int(m.MinMovingSpeed) {
			mm += float64(s) * m.mmPerSpeedUnit()
		}
	}
	return int(mm)
}

// ResetEncoderValues clears the simulated odometry and any distance target.
func (m *Motor) ResetEncoderValues() {
	m.traveledMm = 0
	m.targetActive = false
	m.remainingMm = 0
	m.timedTarget = false
	m.timedUpdatesLeft = 0
}

// ReadFromStore loads tuning values from the given slot.
func (m *Motor) ReadFromStore(store motor.Store, slot int) error {
	values, err := store.ReadSlot(slot)
	if err != nil {
		return err
	}
	m.startSpeed = values.StartSpeed
	m.driveSpeed = values.DriveSpeed
	m.speedCompensation = values.SpeedCompensation
	return nil
}

// WriteToStore saves the current tuning values to the given slot.
func (m *Motor) WriteToStore(store motor.Store, slot int) error {
	return store.WriteSlot(slot, motor.TuningValues{
		StartSpeed:        m.startSpeed,
		DriveSpeed:        m.driveSpeed,
		SpeedCompensation: m.speedCompensation,
	})
}

// CurrentSpeed returns the current PWM speed.
func (m *Motor) CurrentSpeed() uint8 { return m.currentSpeed }

// CurrentMode returns the current direction or brake mode.
func (m *Motor) CurrentMode() motor.Mode { return m.mode }

// RampState returns the current ramp phase.
func (m *Motor) RampState() motor.RampState { return m.rampState }

// StartSpeed returns the configured start speed.
func (m *Motor) StartSpeed() uint8 { return m.startSpeed }

// DriveSpeed returns the configured drive speed.
func (m *Motor) DriveSpeed() uint8 { return m.driveSpeed }

// SpeedCompensation returns the per-wheel compensation.
func (m *Motor) SpeedCompensation() uint8 { return m.speedCompensation }

// EncoderCount returns the simulated encoder tick count.
func (m *Motor) EncoderCount() int {
	if !m.Encoded {
		return 0
	}
	return int(m.traveledMm * m.ticksPerMillimeter())
}

// Properties describes the simulated sensing capabilities.
func (m *Motor) Properties() motor.Properties {
	return motor.Properties{EncoderEquipped: m.Encoded}
}
