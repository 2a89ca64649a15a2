package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/robocyber/control-station/pkg/config"
	customlog "github.com/robocyber/control-station/pkg/log"
	"github.com/robocyber/control-station/pkg/msgs"
	"gopkg.in/yaml.v3"
)

// ProfileNotifier is told about every drive profile that was applied.
type ProfileNotifier interface {
	NotifyProfileUpdated(profile config.DriveProfile) error
}

// NotifierFunc adapts a function to ProfileNotifier.
type NotifierFunc func(profile config.DriveProfile) error

func (f NotifierFunc) NotifyProfileUpdated(profile config.DriveProfile) error {
	return f(profile)
}

// DriveProfileService defines the interface for managing the operator drive profile.
type DriveProfileService interface {
	LoadProfile() error
	GetCurrentProfile() config.DriveProfile
	GetCurrentProfileYAML() ([]byte, error)
	UpdateProfile(newProfileYAML []byte) error
	PersistProfile(yamlData []byte) error
	SetNotifier(n ProfileNotifier)
	Limits() msgs.DriveLimits
}

// driveProfileService implements the DriveProfileService interface.
type driveProfileService struct {
	profilePath    string
	logger         customlog.Logger
	notifier       ProfileNotifier
	currentProfile *config.DriveProfile
	mu             sync.RWMutex
}

// NewDriveProfileService creates a new DriveProfileService.
// A missing profile file is not an error: the default profile is used until one is saved.
func NewDriveProfileService(profilePath string, logger customlog.Logger) (DriveProfileService, error) {
	if profilePath == "" {
		return nil, fmt.Errorf("drive profile path cannot be empty")
	}
	if logger == nil {
		logger = customlog.NewNopLogger()
	}

	service := &driveProfileService{
		profilePath:    profilePath,
		logger:         logger,
		currentProfile: config.DefaultDriveProfile(),
	}

	if err := service.LoadProfile(); err != nil {
		// Allow creation anyway, the profile can be provided later via the API.
		logger.Warnf("Initial load of drive profile '%s' failed: %v. Using defaults.", profilePath, err)
		return service, nil
	}

	logger.Infof("DriveProfileService initialized successfully for path: %s", profilePath)
	return service, nil
}

// LoadProfile reads the profile file from disk and replaces the current profile.
// On failure the current profile is kept.
func (s *driveProfileService) LoadProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("Loading drive profile from: %s", s.profilePath)
	profile, err := config.LoadDriveProfile(s.profilePath)
	if err != nil {
		s.logger.Errorf("Error loading drive profile '%s': %v", s.profilePath, err)
		return err
	}

	s.currentProfile = profile
	s.logger.Infof("Loaded drive profile ID: %s, Version: %s (linear %.2f m/s, angular %.2f rad/s)",
		profile.ProfileID, profile.Version, profile.MaxLinearSpeed, profile.MaxAngularSpeed)
	return nil
}

// GetCurrentProfile returns a copy of the active profile.
func (s *driveProfileService) GetCurrentProfile() config.DriveProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.currentProfile
}

// GetCurrentProfileYAML returns the profile file as stored on disk, or the
// active profile rendered as YAML if nothing has been saved yet.
func (s *driveProfileService) GetCurrentProfileYAML() ([]byte, error) {
	s.mu.RLock()
	path := s.profilePath
	current := *s.currentProfile
	s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		s.logger.Errorf("Error reading drive profile '%s' for YAML export: %v", path, err)
		return nil, fmt.Errorf("error reading drive profile file '%s': %w", path, err)
	}

	data, err = yaml.Marshal(&current)
	if err != nil {
		return nil, fmt.Errorf("error encoding drive profile: %w", err)
	}
	return data, nil
}

// UpdateProfile validates, persists and applies a new profile, then notifies.
func (s *driveProfileService) UpdateProfile(newProfileYAML []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := config.ParseDriveProfile(newProfileYAML)
	if err != nil {
		s.logger.Errorf("Rejected drive profile update: %v", err)
		return err
	}

	if err := s.persistProfileUnlocked(newProfileYAML); err != nil {
		return err
	}

	oldID := s.currentProfile.ProfileID
	s.currentProfile = profile
	s.logger.Infof("Updated drive profile. ID %s -> %s, Version: %s", oldID, profile.ProfileID, profile.Version)

	if s.notifier != nil {
		go func(n ProfileNotifier, p config.DriveProfile) {
			if err := n.NotifyProfileUpdated(p); err != nil {
				s.logger.Warnf("Failed to publish drive profile update notification: %v", err)
			}
		}(s.notifier, *profile)
	}
	return nil
}

// PersistProfile writes the given YAML data to the profile path.
func (s *driveProfileService) PersistProfile(yamlData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistProfileUnlocked(yamlData)
}

// persistProfileUnlocked assumes the caller holds mu.
func (s *driveProfileService) persistProfileUnlocked(yamlData []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.profilePath), 0755); err != nil {
		return fmt.Errorf("error creating data directory for '%s': %w", s.profilePath, err)
	}
	if err := os.WriteFile(s.profilePath, yamlData, 0644); err != nil {
		s.logger.Errorf("Error writing drive profile '%s': %v", s.profilePath, err)
		return fmt.Errorf("error writing drive profile file '%s': %w", s.profilePath, err)
	}
	s.logger.Debugf("Persisted drive profile to %s", s.profilePath)
	return nil
}

// SetNotifier allows injecting the notifier after initialization.
func (s *driveProfileService) SetNotifier(n ProfileNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Limits returns the speed limits of the active profile.
func (s *driveProfileService) Limits() msgs.DriveLimits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return msgs.DriveLimits{
		MaxLinearSpeed:  s.currentProfile.MaxLinearSpeed,
		MaxAngularSpeed: s.currentProfile.MaxAngularSpeed,
	}
}
