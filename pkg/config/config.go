package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidYAML is wrapped by errors for documents that do not parse.
var ErrInvalidYAML = errors.New("invalid YAML format")

// DriveProfile is the operator-adjustable drive configuration persisted in the data directory.
type DriveProfile struct {
	Version         string  `yaml:"version" json:"version"`
	ProfileID       string  `yaml:"profile_id" json:"profile_id"`
	LastUpdated     string  `yaml:"lastUpdated" json:"lastUpdated"`
	RobotID         string  `yaml:"robot_id" json:"robot_id"`
	MaxLinearSpeed  float64 `yaml:"max_linear_speed" json:"max_linear_speed"`   // m/s at full stick
	MaxAngularSpeed float64 `yaml:"max_angular_speed" json:"max_angular_speed"` // rad/s at full stick
}

// DefaultDriveProfile returns unit limits: full stick maps to 1 m/s and 1 rad/s.
func DefaultDriveProfile() *DriveProfile {
	return &DriveProfile{
		Version:         "1.0",
		ProfileID:       "default",
		RobotID:         "robot",
		MaxLinearSpeed:  1.0,
		MaxAngularSpeed: 1.0,
	}
}

// LoadDriveProfile loads a drive profile from the specified file path
func LoadDriveProfile(path string) (*DriveProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading drive profile file: %w", err)
	}
	return ParseDriveProfile(data)
}

// ParseDriveProfile decodes and validates a YAML drive profile.
func ParseDriveProfile(data []byte) (*DriveProfile, error) {
	var profile DriveProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Validate checks required metadata and that both speed limits are finite and positive.
func (p *DriveProfile) Validate() error {
	if p.ProfileID == "" || p.Version == "" || p.RobotID == "" {
		return &ValidationError{Reason: "missing required fields (ProfileID, Version, RobotID)"}
	}
	if !validSpeed(p.MaxLinearSpeed) {
		return &ValidationError{Reason: fmt.Sprintf("max_linear_speed %v must be a positive finite number", p.MaxLinearSpeed)}
	}
	if !validSpeed(p.MaxAngularSpeed) {
		return &ValidationError{Reason: fmt.Sprintf("max_angular_speed %v must be a positive finite number", p.MaxAngularSpeed)}
	}
	return nil
}

func validSpeed(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ValidationError reports a semantically invalid configuration.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// IsValidationError marks the error as caused by bad input rather than I/O.
func (e *ValidationError) IsValidationError() bool { return true }
