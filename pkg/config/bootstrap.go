package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// BootstrapFileName is the name of the station config file inside the config directory.
const BootstrapFileName = "station_config.yaml"

// DefaultBridgeURL is the rosbridge endpoint used when nothing else is configured.
const DefaultBridgeURL = "ws://localhost:9090"

// Environment variables honoured by ApplyEnvOverrides.
const (
	EnvBridgeURL = "ROS_WEBSOCKET_URL"
	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
)

// BootstrapConfig holds the configuration loaded from station_config.yaml
type BootstrapConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Data    DataConfig    `yaml:"data"`
	Console ConsoleConfig `yaml:"console"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

// ServerConfig holds the dashboard HTTP server settings
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// BridgeConfig holds rosbridge connection settings
type BridgeConfig struct {
	URL              string `yaml:"url"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`
	PingIntervalMs   int    `yaml:"ping_interval_ms"`
	WriteTimeoutMs   int    `yaml:"write_timeout_ms"`
	SendBufferSize   int    `yaml:"send_buffer_size"`
	CmdVelTopic      string `yaml:"cmd_vel_topic"`
}

// DataConfig holds data directory settings
type DataConfig struct {
	Directory            string `yaml:"directory"`
	DriveProfileFilename string `yaml:"drive_profile_file"`
}

// ConsoleConfig controls the operator console buffer
type ConsoleConfig struct {
	MaxLines int `yaml:"max_lines"`
}

// ConnectTimeout returns the connect timeout as a duration.
func (b BridgeConfig) ConnectTimeout() time.Duration {
	return time.Duration(b.ConnectTimeoutMs) * time.Millisecond
}

// PingInterval returns the keepalive interval as a duration.
func (b BridgeConfig) PingInterval() time.Duration {
	return time.Duration(b.PingIntervalMs) * time.Millisecond
}

// WriteTimeout returns the per-frame write deadline as a duration.
func (b BridgeConfig) WriteTimeout() time.Duration {
	return time.Duration(b.WriteTimeoutMs) * time.Millisecond
}

// DriveProfilePath joins the data directory and the drive profile file name.
func (d DataConfig) DriveProfilePath() string {
	return filepath.Join(d.Directory, d.DriveProfileFilename)
}

// DefaultBootstrapConfig returns the configuration used when no file is present.
func DefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{HTTPPort: 8080},
		Bridge: BridgeConfig{
			URL:              DefaultBridgeURL,
			ConnectTimeoutMs: 5000,
			PingIntervalMs:   30000,
			WriteTimeoutMs:   10000,
			SendBufferSize:   64,
			CmdVelTopic:      "/cmd_vel",
		},
		Data: DataConfig{
			Directory:            "./data",
			DriveProfileFilename: "drive_profile.yaml",
		},
		Console: ConsoleConfig{MaxLines: 21},
	}
}

// LoadBootstrapConfig loads station_config.yaml from configDir on top of the defaults.
// Fields absent from the file keep their default values.
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFileName)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	bootstrapCfg := DefaultBootstrapConfig()
	if err := yaml.Unmarshal(data, bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if err := bootstrapCfg.Validate(); err != nil {
		return nil, err
	}
	return bootstrapCfg, nil
}

// LoadOrDefault behaves like LoadBootstrapConfig but falls back to the defaults
// when the file does not exist.
func LoadOrDefault(configDir string) (*BootstrapConfig, error) {
	cfg, err := LoadBootstrapConfig(configDir)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultBootstrapConfig(), nil
	}
	return cfg, err
}

// ApplyEnvOverrides replaces values with the ones found in the environment.
func (c *BootstrapConfig) ApplyEnvOverrides() error {
	if v := os.Getenv(EnvBridgeURL); v != "" {
		c.Bridge.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value '%s': %w", EnvPort, v, err)
		}
		c.Server.HTTPPort = port
	}
	return c.Validate()
}

// Validate checks the fields the station cannot run without.
func (c *BootstrapConfig) Validate() error {
	if err := ValidateBridgeURL(c.Bridge.URL); err != nil {
		return fmt.Errorf("invalid bootstrap config: bridge.url: %w", err)
	}
	if c.Bridge.ConnectTimeoutMs <= 0 {
		return fmt.Errorf("invalid bootstrap config: bridge.connect_timeout_ms must be positive")
	}
	if c.Bridge.PingIntervalMs <= 0 {
		return fmt.Errorf("invalid bootstrap config: bridge.ping_interval_ms must be positive")
	}
	if c.Bridge.WriteTimeoutMs <= 0 {
		return fmt.Errorf("invalid bootstrap config: bridge.write_timeout_ms must be positive")
	}
	if c.Bridge.SendBufferSize <= 0 {
		return fmt.Errorf("invalid bootstrap config: bridge.send_buffer_size must be positive")
	}
	if c.Bridge.CmdVelTopic == "" {
		return fmt.Errorf("missing required field in bootstrap config: bridge.cmd_vel_topic")
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid bootstrap config: server.http_port %d out of range", c.Server.HTTPPort)
	}
	if c.Data.Directory == "" {
		return fmt.Errorf("missing required field in bootstrap config: data.directory")
	}
	if c.Data.DriveProfileFilename == "" {
		return fmt.Errorf("missing required field in bootstrap config: data.drive_profile_file")
	}
	if c.Console.MaxLines <= 0 {
		return fmt.Errorf("invalid bootstrap config: console.max_lines must be positive")
	}
	return nil
}

// ValidateBridgeURL accepts absolute ws:// and wss:// URLs with a host.
func ValidateBridgeURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed url '%s': %w", raw, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("unsupported scheme '%s' in '%s' (want ws or wss)", u.Scheme, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in '%s'", raw)
	}
	return nil
}
