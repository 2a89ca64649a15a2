package teleop

import (
	"fmt"
	"math"
	"sync"

	customlog "github.com/robocyber/control-station/pkg/log"
	"github.com/robocyber/control-station/pkg/msgs"
)

// DriveController is the part of BridgeClient the TeleopService drives.
type DriveController interface {
	PublishScaledDriveCommand(x, y, maxLinearSpeed, maxAngularSpeed float64)
	ConnectionStatus() bool
}

// LimitsProvider supplies the current drive limits.
type LimitsProvider interface {
	Limits() msgs.DriveLimits
}

// TeleopService turns joystick input from the dashboard into drive commands.
type TeleopService struct {
	client DriveController
	limits LimitsProvider
	sink   EventSink
	logger customlog.Logger

	mu       sync.RWMutex
	position msgs.Vector2
}

// NewTeleopService creates a new teleop service instance.
// limits may be nil, in which case DefaultDriveLimits apply.
func NewTeleopService(client DriveController, limits LimitsProvider, sink EventSink, logger customlog.Logger) *TeleopService {
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	return &TeleopService{
		client: client,
		limits: limits,
		sink:   sink,
		logger: logger,
	}
}

// ValidateCommand rejects joystick values that are not finite numbers.
func (s *TeleopService) ValidateCommand(cmd msgs.Vector2) error {
	if math.IsNaN(cmd.X) || math.IsInf(cmd.X, 0) || math.IsNaN(cmd.Y) || math.IsInf(cmd.Y, 0) {
		return fmt.Errorf("%w: x=%v y=%v", ErrInvalidCommand, cmd.X, cmd.Y)
	}
	return nil
}

// Drive records the joystick position and, while connected, echoes it to the
// console and publishes it scaled by the current drive limits.
// Components outside [-1, 1] are clamped.
func (s *TeleopService) Drive(cmd msgs.Vector2) error {
	if err := s.ValidateCommand(cmd); err != nil {
		return err
	}
	cmd = msgs.Vector2{X: clamp(cmd.X), Y: clamp(cmd.Y)}

	s.mu.Lock()
	s.position = cmd
	s.mu.Unlock()

	if !s.client.ConnectionStatus() {
		return nil
	}

	if s.sink != nil {
		s.sink(EventMove(cmd.X, cmd.Y))
	}
	limits := s.currentLimits()
	s.client.PublishScaledDriveCommand(cmd.X, cmd.Y, limits.MaxLinearSpeed, limits.MaxAngularSpeed)
	return nil
}

// Stop centres the joystick and publishes a zero command.
func (s *TeleopService) Stop() {
	s.mu.Lock()
	s.position = msgs.Vector2{}
	s.mu.Unlock()

	if s.client.ConnectionStatus() {
		s.logger.Debugf("Stopping robot")
		s.client.PublishScaledDriveCommand(0, 0, 0, 0)
	}
}

// Position returns the last accepted joystick position.
func (s *TeleopService) Position() msgs.Vector2 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

func (s *TeleopService) currentLimits() msgs.DriveLimits {
	if s.limits == nil {
		return msgs.DefaultDriveLimits
	}
	return s.limits.Limits()
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
