package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robocyber/control-station/domain/teleop"
	"github.com/robocyber/control-station/pkg/msgs"
	"github.com/robocyber/control-station/services"
	"github.com/spf13/cobra"
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Send one timed drive command",
	Long: `Connect to the bridge, publish a joystick vector at a fixed rate for a
while, publish a zero command and disconnect.

Examples:
  # Drive forward at half speed for two seconds
  station drive --y 0.5 --duration 2s

  # Spin right in place against a remote bridge
  station drive --x 1 --bridge-url ws://robot.local:9090`,
	RunE: runDrive,
}

var (
	driveX        float64
	driveY        float64
	driveDuration time.Duration
	driveRate     float64
)

func init() {
	rootCmd.AddCommand(driveCmd)

	driveCmd.Flags().Float64Var(&driveX, "x", 0, "Horizontal joystick axis in [-1, 1] (turn)")
	driveCmd.Flags().Float64Var(&driveY, "y", 0, "Vertical joystick axis in [-1, 1] (forward)")
	driveCmd.Flags().DurationVarP(&driveDuration, "duration", "d", time.Second, "How long to drive")
	driveCmd.Flags().Float64Var(&driveRate, "rate", 10, "Publish rate in Hz (at most 1000)")
}

func runDrive(cmd *cobra.Command, args []string) error {
	if err := validateDriveArgs(driveX, driveY, driveDuration, driveRate); err != nil {
		return err
	}

	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	profiles, err := services.NewDriveProfileService(cfg.Data.DriveProfilePath(), logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	client := newBridgeClient(cfg, logger, func(message string) {
		fmt.Fprintln(out, message)
	}, nil)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return drive(ctx, client, cfg.Bridge.URL, msgs.Vector2{X: driveX, Y: driveY}, profiles.Limits(), driveDuration, driveRate)
}

// maxDriveRate keeps the publish period at or above one millisecond.
const maxDriveRate = 1000

func validateDriveArgs(x, y float64, duration time.Duration, rate float64) error {
	for name, v := range map[string]float64{"x": x, "y": y} {
		if math.IsNaN(v) || v < -1 || v > 1 {
			return fmt.Errorf("--%s must be within [-1, 1], got %v", name, v)
		}
	}
	if duration < 0 {
		return fmt.Errorf("--duration must not be negative")
	}
	if !(rate > 0) || rate > maxDriveRate {
		return fmt.Errorf("--rate must be within (0, %v] Hz, got %v", maxDriveRate, rate)
	}
	return nil
}

// drive connects, publishes cmd until duration passes or ctx ends, then stops
// the robot and disconnects.
func drive(ctx context.Context, client *teleop.BridgeClient, endpoint string, cmd msgs.Vector2, limits msgs.DriveLimits, duration time.Duration, rate float64) error {
	if err := client.Connect(ctx, endpoint); err != nil {
		return err
	}
	defer client.Disconnect()

	publish := func() {
		client.PublishScaledDriveCommand(cmd.X, cmd.Y, limits.MaxLinearSpeed, limits.MaxAngularSpeed)
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	publish()
loop:
	for {
		select {
		case <-ticker.C:
			if !client.ConnectionStatus() {
				return fmt.Errorf("bridge connection lost while driving")
			}
			publish()
		case <-deadline.C:
			break loop
		case <-ctx.Done():
			break loop
		}
	}

	client.PublishCmdVel(msgs.Stop())
	return nil
}
