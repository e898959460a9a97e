package fake

import (
	"context"
	"testing"

	"go.viam.com/test"
)

func TestQueuedSamples(t *testing.T) {
	s := &Sensor{}
	s.Feed(
		Sample{TurnAngleHalfDegree: 2, SpeedCmPerSecond: 5, DistanceMillimeter: 10},
		Sample{TurnAngleHalfDegree: 4, SpeedCmPerSecond: 6, DistanceMillimeter: 20},
	)

	test.That(t, s.PollNewSample(), test.ShouldBeTrue)
	test.That(t, s.TurnAngleHalfDegree(), test.ShouldEqual, 2)
	test.That(t, s.PollNewSample(), test.ShouldBeTrue)
	test.That(t, s.DistanceMillimeter(), test.ShouldEqual, 20)

	// queue exhausted, no step deltas configured
	test.That(t, s.PollNewSample(), test.ShouldBeFalse)
	test.That(t, s.SpeedCmPerSecond(), test.ShouldEqual, 6)
}

func TestStepDeltas(t *testing.T) {
	s := &Sensor{StepAngleHalfDegree: 3, StepDistanceMm: 7}

	test.That(t, s.PollNewSample(), test.ShouldBeTrue)
	test.That(t, s.PollNewSample(), test.ShouldBeTrue)
	test.That(t, s.TurnAngleHalfDegree(), test.ShouldEqual, 6)
	test.That(t, s.DistanceMillimeter(), test.ShouldEqual, 14)

	s.ResetCarData()
	test.That(t, s.TurnAngleHalfDegree(), test.ShouldEqual, 0)
}

func TestOffsets(t *testing.T) {
	s := &Sensor{}
	test.That(t, s.OffsetsComputed(), test.ShouldBeFalse)
	test.That(t, s.ResetOffsetDataAndWait(context.Background()), test.ShouldBeNil)
	test.That(t, s.OffsetsComputed(), test.ShouldBeTrue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	test.That(t, (&Sensor{}).ResetOffsetDataAndWait(ctx), test.ShouldBeError, context.Canceled)
}
