package main

import (
	"fmt"
	"strings"

	"github.com/robocyber/control-station/pkg/config"
	customlog "github.com/robocyber/control-station/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "station",
	Short: "RoboCyber Control Station",
	Long: `RoboCyber Control Station drives a robot through a rosbridge WebSocket
server. "serve" runs the dashboard backend, "drive" sends a single timed
drive command without a dashboard.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config-dir", ".", "directory containing "+config.BootstrapFileName)
	rootCmd.PersistentFlags().String("bridge-url", "", "rosbridge WebSocket URL (overrides config and "+config.EnvBridgeURL+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	bindFlags()
}

func bindFlags() {
	_ = viper.BindPFlag("config_dir", rootCmd.PersistentFlags().Lookup("config-dir"))
	_ = viper.BindPFlag("bridge_url", rootCmd.PersistentFlags().Lookup("bridge-url"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("STATION")
	// e.g. STATION_BRIDGE_URL for bridge_url
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// loadSettings resolves the station configuration: file defaults, then the
// environment, then command-line flags.
func loadSettings() (*config.BootstrapConfig, error) {
	cfg, err := config.LoadOrDefault(viper.GetString("config_dir"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if v := viper.GetString("bridge_url"); v != "" {
		cfg.Bridge.URL = v
	}
	if v := viper.GetString("log_level"); v != "" {
		cfg.Logging.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.BootstrapConfig) (customlog.Logger, error) {
	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
