package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robocyber/control-station/pkg/config"
	"github.com/robocyber/control-station/pkg/msgs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProfile = `
version: "1.1"
profile_id: "outdoor"
lastUpdated: "2026-10-01T10:00:00Z"
robot_id: "rover-7"
max_linear_speed: 2.0
max_angular_speed: 0.5
`

func TestNewDriveProfileServiceUsesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive_profile.yaml")
	svc, err := NewDriveProfileService(path, nil)
	require.NoError(t, err)

	assert.Equal(t, *config.DefaultDriveProfile(), svc.GetCurrentProfile())
	assert.Equal(t, msgs.DefaultDriveLimits, svc.Limits())

	data, err := svc.GetCurrentProfileYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "profile_id: default")
}

func TestNewDriveProfileServiceRequiresPath(t *testing.T) {
	_, err := NewDriveProfileService("", nil)
	assert.Error(t, err)
}

func TestNewDriveProfileServiceLoadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive_profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validProfile), 0644))

	svc, err := NewDriveProfileService(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "outdoor", svc.GetCurrentProfile().ProfileID)
	assert.Equal(t, msgs.DriveLimits{MaxLinearSpeed: 2.0, MaxAngularSpeed: 0.5}, svc.Limits())
}

func TestNewDriveProfileServiceKeepsDefaultsOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive_profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_linear_speed: [oops"), 0644))

	svc, err := NewDriveProfileService(path, nil)
	require.NoError(t, err)
	assert.Equal(t, msgs.DefaultDriveLimits, svc.Limits())
}

func TestUpdateProfilePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "drive_profile.yaml")
	svc, err := NewDriveProfileService(path, nil)
	require.NoError(t, err)

	notified := make(chan config.DriveProfile, 1)
	svc.SetNotifier(NotifierFunc(func(p config.DriveProfile) error {
		notified <- p
		return nil
	}))

	require.NoError(t, svc.UpdateProfile([]byte(validProfile)))
	assert.Equal(t, 2.0, svc.Limits().MaxLinearSpeed)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, validProfile, string(onDisk))

	data, err := svc.GetCurrentProfileYAML()
	require.NoError(t, err)
	assert.Equal(t, validProfile, string(data))

	select {
	case p := <-notified:
		assert.Equal(t, "rover-7", p.RobotID)
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestUpdateProfileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive_profile.yaml")
	svc, err := NewDriveProfileService(path, nil)
	require.NoError(t, err)

	err = svc.UpdateProfile([]byte("version: [broken"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid YAML format"))

	err = svc.UpdateProfile([]byte(strings.Replace(validProfile, "2.0", "-1", 1)))
	var vErr *config.ValidationError
	require.ErrorAs(t, err, &vErr)

	assert.Equal(t, msgs.DefaultDriveLimits, svc.Limits(), "rejected updates leave the profile untouched")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "rejected updates are not persisted")
}

func TestLoadProfileReloadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive_profile.yaml")
	svc, err := NewDriveProfileService(path, nil)
	require.NoError(t, err)

	require.NoError(t, svc.PersistProfile([]byte(validProfile)))
	require.NoError(t, svc.LoadProfile())
	assert.Equal(t, "outdoor", svc.GetCurrentProfile().ProfileID)
}
