// Package main runs a simulated differential-drive car through a square
// path and an in-place turn, exercising the controller against the fake
// motors and fake IMU.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"github.com/itexpertshire/PWMMotorControl/car"
	imufake "github.com/itexpertshire/PWMMotorControl/imu/fake"
	"github.com/itexpertshire/PWMMotorControl/motor"
	motorfake "github.com/itexpertshire/PWMMotorControl/motor/fake"
	"github.com/itexpertshire/PWMMotorControl/store"
)

type demoConfig struct {
	FourWheels bool   `yaml:"four_wheels"`
	Encoded    bool   `yaml:"encoded"`
	IMU        bool   `yaml:"imu"`
	DriveSpeed uint8  `yaml:"drive_speed"`
	StoreFile  string `yaml:"store_file"`
}

func loadConfig(path string) (demoConfig, error) {
	cfg := demoConfig{Encoded: true, DriveSpeed: 90}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

func main() {
	goutils.ContextualMain(mainWithArgs, golog.NewDevelopmentLogger("cardemo"))
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	configPath := flags.String("config", "", "path to YAML config")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	left := &motorfake.Motor{Name: "left", Logger: logger, Encoded: cfg.Encoded, MinMovingSpeed: 24}
	right := &motorfake.Motor{Name: "right", Logger: logger, Encoded: cfg.Encoded, MinMovingSpeed: 26}

	carCfg := car.Config{
		Left:           left,
		Right:          right,
		FourWheels:     cfg.FourWheels,
		UpdateInterval: time.Millisecond,
	}
	var sensor *imufake.Sensor
	if cfg.IMU {
		sensor = &imufake.Sensor{
			OffsetsReady:        true,
			StepAngleHalfDegree: 2,
			StepSpeedCm:         1,
			StepDistanceMm:      5,
		}
		carCfg.IMU = sensor
	}

	c, err := car.NewCar(carCfg, logger)
	if err != nil {
		return err
	}
	c.SetDefaultsForFixedDistanceDriving()
	c.SetDriveSpeed(cfg.DriveSpeed)

	if cfg.StoreFile != "" {
		tuning := store.NewFileStore(cfg.StoreFile)
		if err := c.ReadFromStore(tuning); err != nil {
			logger.Infow("no stored tuning values, calibrating", "error", err)
			if err := c.Calibrate(ctx, tickMotors(left, right)); err != nil {
				return err
			}
			if err := c.WriteToStore(tuning); err != nil {
				return err
			}
		}
	}

	for leg := 0; leg < 4; leg++ {
		logger.Infow("driving square leg", "leg", leg)
		if err := c.GoDistance(ctx, 500, motor.DirectionForward, nil); err != nil {
			return err
		}
		if err := c.Rotate(ctx, 90, car.TurnInPlace, true, nil); err != nil {
			return err
		}
		if sensor != nil {
			sensor.ResetCarData()
		}
	}

	logger.Infow("done", "distance_mm", c.DistanceMillimeter(), "stopped", c.IsStopped())
	return nil
}

// tickMotors stands in for the encoder interrupts of real hardware by
// advancing the fake motors outside the supervisor's own updates during
// calibration dwells.
func tickMotors(left, right *motorfake.Motor) car.TickFunc {
	return func(ctx context.Context) error {
		left.Update()
		right.Update()
		return ctx.Err()
	}
}
