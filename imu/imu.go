// Package imu defines the contract for an inertial odometry source, such as
// an MPU-6050 whose FIFO samples are integrated into car speed, distance and
// turn angle.
package imu

import "context"

// A Sensor supplies integrated car odometry. Readings are only meaningful
// once the boot-time offset calibration has produced nonzero offsets; until
// then OffsetsComputed reports false and consumers must treat every reading
// as unavailable.
//
// All angle, speed and distance values are cumulative since the last
// ResetCarData call.
type Sensor interface {
	// PollNewSample drains the sensor FIFO and reports whether at least one
	// fresh sample was integrated.
	PollNewSample() bool

	// ResetCarData zeroes the integrated speed, distance and turn angle.
	ResetCarData()

	// ResetOffsetDataAndWait recomputes the axis offsets. The car must not
	// be moving while this runs.
	ResetOffsetDataAndWait(ctx context.Context) error

	// OffsetsComputed reports whether offset calibration has completed with
	// a nonzero forward-acceleration offset.
	OffsetsComputed() bool

	// TurnAngleHalfDegree returns the integrated turn angle in half degrees,
	// positive for left turns.
	TurnAngleHalfDegree() int

	// SpeedCmPerSecond returns the signed current car speed.
	SpeedCmPerSecond() int

	// DistanceMillimeter returns the signed integrated travel.
	DistanceMillimeter() int
}
