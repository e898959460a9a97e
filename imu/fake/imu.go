// Package fake implements a scripted inertial odometry source for tests and
// demos.
package fake

import (
	"context"

	"github.com/itexpertshire/PWMMotorControl/imu"
)

// Sample is one integrated odometry reading.
type Sample struct {
	TurnAngleHalfDegree int
	SpeedCmPerSecond    int
	DistanceMillimeter  int
}

// Sensor is a fake imu.Sensor. Each PollNewSample consumes the next queued
// Sample; when the queue is empty the per-poll Step deltas are applied
// instead, giving an unbounded monotonic feed.
type Sensor struct {
	Samples []Sample

	StepAngleHalfDegree int
	StepSpeedCm         int
	StepDistanceMm      int

	// OffsetsReady marks boot offset calibration as already done.
	OffsetsReady bool

	current Sample
}

var _ imu.Sensor = (*Sensor)(nil)

// Feed queues additional samples.
func (s *Sensor) Feed(samples ...Sample) {
	s.Samples = append(s.Samples, samples...)
}

// PollNewSample consumes the next reading and reports whether one was
// available.
func (s *Sensor) PollNewSample() bool {
	if len(s.Samples) > 0 {
		s.current = s.Samples[0]
		s.Samples = s.Samples[1:]
		return true
	}
	if s.StepAngleHalfDegree == 0 && s.StepSpeedCm == 0 && s.StepDistanceMm == 0 {
		return false
	}
	s.current.TurnAngleHalfDegree += s.StepAngleHalfDegree
	s.current.SpeedCmPerSecond += s.StepSpeedCm
	s.current.DistanceMillimeter += s.StepDistanceMm
	return true
}

// ResetCarData zeroes the integrated readings.
func (s *Sensor) ResetCarData() {
	s.current = Sample{}
}

// ResetOffsetDataAndWait marks the offsets as computed.
func (s *Sensor) ResetOffsetDataAndWait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.OffsetsReady = true
	return nil
}

// OffsetsComputed reports whether offset calibration has run.
func (s *Sensor) OffsetsComputed() bool { return s.OffsetsReady }

// TurnAngleHalfDegree returns the current integrated turn angle.
func (s *Sensor) TurnAngleHalfDegree() int { return s.current.TurnAngleHalfDegree }

// SpeedCmPerSecond returns the current car speed.
func (s *Sensor) SpeedCmPerSecond() int { return s.current.SpeedCmPerSecond }

// DistanceMillimeter returns the current integrated travel.
func (s *Sensor) DistanceMillimeter() int { return s.current.DistanceMillimeter }
