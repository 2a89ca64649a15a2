package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robocyber/control-station/domain/diagnostic"
	customlog "github.com/robocyber/control-station/pkg/log"
	"github.com/robocyber/control-station/services"
)

// Dependencies are the services exposed over HTTP.
type Dependencies struct {
	Bridge           BridgeController
	Driver           Driver
	Console          ConsoleLog
	Profiles         services.DriveProfileService
	Diagnostics      *diagnostic.DiagnosticService
	Gatherer         prometheus.Gatherer
	DefaultBridgeURL string
	Logger           customlog.Logger
	AccessLog        bool
}

// NewApp builds the dashboard backend.
func NewApp(deps Dependencies) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = customlog.NewNopLogger()
	}

	app := fiber.New(fiber.Config{
		AppName:               "RoboCyber Control Station",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	if deps.AccessLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "robocyber control station",
		})
	})

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	RegisterConnectionRoutes(app, NewConnectionHandler(deps.Bridge, deps.DefaultBridgeURL, deps.Logger))
	RegisterConsoleRoutes(app, deps.Console)
	if deps.Profiles != nil {
		RegisterConfigRoutes(app, deps.Profiles, deps.Logger)
	}
	if deps.Diagnostics != nil {
		app.Get("/api/v1/diagnostics", deps.Diagnostics.GetDiagnosticsHandler)
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control", websocket.New(func(conn *websocket.Conn) {
		ControlWebSocketHandler(conn, deps.Logger, deps.Driver)
	}))
	app.Get("/ws/console", websocket.New(func(conn *websocket.Conn) {
		ConsoleWebSocketHandler(conn, deps.Logger, deps.Console)
	}))

	return app
}
