package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robocyber/control-station/domain/diagnostic"
	"github.com/robocyber/control-station/domain/teleop"
	"github.com/robocyber/control-station/pkg/api"
	"github.com/robocyber/control-station/pkg/config"
	"github.com/robocyber/control-station/pkg/console"
	"github.com/robocyber/control-station/pkg/metrics"
	"github.com/robocyber/control-station/services"
	"github.com/spf13/cobra"
)

// EventProfileUpdated is written to the console when the drive profile changes.
const EventProfileUpdated = "CONFIG: Drive profile updated"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard backend",
	Long: `Serve the dashboard HTTP API and WebSocket streams.

The robot link is opened through POST /api/v1/connection (or the toggle
endpoint), joystick input arrives on /ws/control and console lines are
streamed on /ws/console.`,
	RunE: runServe,
}

var (
	servePort    int
	serveConnect bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (default from config or PORT)")
	serveCmd.Flags().BoolVar(&serveConnect, "connect", false, "Connect to the bridge on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.HTTPPort = servePort
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	con := console.New(cfg.Console.MaxLines, console.BootLines...)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics := metrics.NewMetrics(registry, nil)

	client := newBridgeClient(cfg, logger, con.Append, promMetrics)

	profiles, err := services.NewDriveProfileService(cfg.Data.DriveProfilePath(), logger.WithField("component", "profile"))
	if err != nil {
		return err
	}
	profiles.SetNotifier(services.NotifierFunc(func(config.DriveProfile) error {
		con.Append(EventProfileUpdated)
		return nil
	}))

	teleopService := teleop.NewTeleopService(client, profiles, con.Append, logger)

	app := api.NewApp(api.Dependencies{
		Bridge:           client,
		Driver:           teleopService,
		Console:          con,
		Profiles:         profiles,
		Diagnostics:      diagnostic.NewDiagnosticService(client),
		Gatherer:         registry,
		DefaultBridgeURL: cfg.Bridge.URL,
		Logger:           logger,
		AccessLog:        true,
	})

	if serveConnect {
		go func() {
			if err := client.Connect(context.Background(), cfg.Bridge.URL); err != nil {
				logger.Warnf("Startup connect failed: %v", err)
			}
		}()
	}

	// Start server in a goroutine
	listenErr := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %d (bridge %s)", cfg.Server.HTTPPort, cfg.Bridge.URL)
		listenErr <- app.Listen(fmt.Sprintf(":%d", cfg.Server.HTTPPort))
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-listenErr:
		client.Disconnect()
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Infof("Shutting down server...")

	client.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Infof("Server exited properly")
	return nil
}
