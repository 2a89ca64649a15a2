package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDriveProfile(t *testing.T) {
	tempDir := t.TempDir()

	profileContent := `
version: "1.0"
profile_id: "test-drive-profile"
lastUpdated: "2024-01-01T00:00:00Z"
robot_id: "test-robot"
max_linear_speed: 0.5
max_angular_speed: 1.5
`
	profilePath := filepath.Join(tempDir, "drive_profile.yaml")
	if err := os.WriteFile(profilePath, []byte(profileContent), 0644); err != nil {
		t.Fatalf("Failed to write test profile: %v", err)
	}

	profile, err := LoadDriveProfile(profilePath)
	if err != nil {
		t.Fatalf("LoadDriveProfile failed: %v", err)
	}

	if profile.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", profile.Version)
	}
	if profile.ProfileID != "test-drive-profile" {
		t.Errorf("Expected profile_id test-drive-profile, got %s", profile.ProfileID)
	}
	if profile.RobotID != "test-robot" {
		t.Errorf("Expected robot_id test-robot, got %s", profile.RobotID)
	}
	if profile.MaxLinearSpeed != 0.5 {
		t.Errorf("Expected max_linear_speed 0.5, got %v", profile.MaxLinearSpeed)
	}
	if profile.MaxAngularSpeed != 1.5 {
		t.Errorf("Expected max_angular_speed 1.5, got %v", profile.MaxAngularSpeed)
	}
}

func TestParseDriveProfileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing metadata",
			content: "version: \"1.0\"\nmax_linear_speed: 1\nmax_angular_speed: 1\n",
			want:    "missing required fields",
		},
		{
			name:    "zero linear speed",
			content: "version: \"1.0\"\nprofile_id: p\nrobot_id: r\nmax_linear_speed: 0\nmax_angular_speed: 1\n",
			want:    "max_linear_speed",
		},
		{
			name:    "negative angular speed",
			content: "version: \"1.0\"\nprofile_id: p\nrobot_id: r\nmax_linear_speed: 1\nmax_angular_speed: -2\n",
			want:    "max_angular_speed",
		},
		{
			name:    "not yaml",
			content: "version: [unterminated",
			want:    "invalid YAML format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDriveProfile([]byte(tt.content))
			if err == nil {
				t.Fatalf("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidationErrorIsDetectable(t *testing.T) {
	_, err := ParseDriveProfile([]byte("version: \"1.0\"\n"))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if !vErr.IsValidationError() {
		t.Errorf("Expected IsValidationError to be true")
	}
}

func TestDefaultDriveProfileIsValid(t *testing.T) {
	if err := DefaultDriveProfile().Validate(); err != nil {
		t.Errorf("Default drive profile should be valid: %v", err)
	}
}

func TestLoadBootstrapConfig(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
logging:
  level: "debug"
  log_path: "/var/log/station"
server:
  http_port: 9191
bridge:
  url: "ws://robot.local:9090"
  connect_timeout_ms: 2500
  ping_interval_ms: 15000
  write_timeout_ms: 4000
  send_buffer_size: 16
  cmd_vel_topic: "/robot/cmd_vel"
data:
  directory: "/data/station"
  drive_profile_file: "my_profile.yaml"
console:
  max_lines: 50
`
	configPath := filepath.Join(tempDir, BootstrapFileName)
	if err := os.WriteFile(configPath, []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	cfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.LogPath != "/var/log/station" {
		t.Errorf("Expected log path '/var/log/station', got '%s'", cfg.Logging.LogPath)
	}
	if cfg.Server.HTTPPort != 9191 {
		t.Errorf("Expected server http_port 9191, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Bridge.URL != "ws://robot.local:9090" {
		t.Errorf("Expected bridge url 'ws://robot.local:9090', got '%s'", cfg.Bridge.URL)
	}
	if cfg.Bridge.ConnectTimeout().Milliseconds() != 2500 {
		t.Errorf("Expected connect timeout 2500ms, got %v", cfg.Bridge.ConnectTimeout())
	}
	if cfg.Bridge.PingInterval().Seconds() != 15 {
		t.Errorf("Expected ping interval 15s, got %v", cfg.Bridge.PingInterval())
	}
	if cfg.Bridge.WriteTimeout().Seconds() != 4 {
		t.Errorf("Expected write timeout 4s, got %v", cfg.Bridge.WriteTimeout())
	}
	if cfg.Bridge.SendBufferSize != 16 {
		t.Errorf("Expected send_buffer_size 16, got %d", cfg.Bridge.SendBufferSize)
	}
	if cfg.Bridge.CmdVelTopic != "/robot/cmd_vel" {
		t.Errorf("Expected cmd_vel_topic '/robot/cmd_vel', got '%s'", cfg.Bridge.CmdVelTopic)
	}
	if got := cfg.Data.DriveProfilePath(); got != filepath.Join("/data/station", "my_profile.yaml") {
		t.Errorf("Unexpected drive profile path '%s'", got)
	}
	if cfg.Console.MaxLines != 50 {
		t.Errorf("Expected console max_lines 50, got %d", cfg.Console.MaxLines)
	}
}

func TestLoadBootstrapConfigKeepsDefaults(t *testing.T) {
	tempDir := t.TempDir()

	// Only the log level is set, everything else should come from the defaults
	if err := os.WriteFile(filepath.Join(tempDir, BootstrapFileName), []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	cfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Bridge.URL != DefaultBridgeURL {
		t.Errorf("Expected default bridge url, got %s", cfg.Bridge.URL)
	}
	if cfg.Console.MaxLines != 21 {
		t.Errorf("Expected default console max_lines 21, got %d", cfg.Console.MaxLines)
	}
}

func TestLoadBootstrapConfigInvalidURL(t *testing.T) {
	tempDir := t.TempDir()

	content := "bridge:\n  url: \"http://localhost:9090\"\n"
	if err := os.WriteFile(filepath.Join(tempDir, BootstrapFileName), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	_, err := LoadBootstrapConfig(tempDir)
	if err == nil {
		t.Fatalf("Expected error for http:// bridge url, got nil")
	}
	if !strings.Contains(err.Error(), "bridge.url") {
		t.Errorf("Expected error to mention bridge.url, got: %v", err)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Bridge.URL != DefaultBridgeURL {
		t.Errorf("Expected default bridge url, got %s", cfg.Bridge.URL)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvBridgeURL, "wss://bridge.example.com:443/ros")
	t.Setenv(EnvPort, "8181")
	t.Setenv(EnvLogLevel, "debug")

	cfg := DefaultBootstrapConfig()
	if err := cfg.ApplyEnvOverrides(); err != nil {
		t.Fatalf("ApplyEnvOverrides failed: %v", err)
	}
	if cfg.Bridge.URL != "wss://bridge.example.com:443/ros" {
		t.Errorf("Expected env bridge url, got %s", cfg.Bridge.URL)
	}
	if cfg.Server.HTTPPort != 8181 {
		t.Errorf("Expected port 8181, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %s", cfg.Logging.Level)
	}
}

func TestApplyEnvOverridesBadPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")

	cfg := DefaultBootstrapConfig()
	if err := cfg.ApplyEnvOverrides(); err == nil {
		t.Errorf("Expected error for non-numeric PORT")
	}
}

func TestValidateBridgeURL(t *testing.T) {
	valid := []string{"ws://localhost:9090", "wss://robot.example.com/bridge"}
	for _, u := range valid {
		if err := ValidateBridgeURL(u); err != nil {
			t.Errorf("Expected %s to be valid, got %v", u, err)
		}
	}

	invalid := []string{"", "localhost:9090", "http://localhost:9090", "ws://", "::not a url"}
	for _, u := range invalid {
		if err := ValidateBridgeURL(u); err == nil {
			t.Errorf("Expected %q to be rejected", u)
		}
	}
}
