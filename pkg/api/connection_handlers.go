package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/robocyber/control-station/domain/teleop"
	customlog "github.com/robocyber/control-station/pkg/log"
)

// ConnectionHandler serves the connection panel endpoints.
type ConnectionHandler struct {
	bridge     BridgeController
	defaultURL string
	logger     customlog.Logger
}

// NewConnectionHandler creates a handler that connects to defaultURL unless a request names another.
func NewConnectionHandler(bridge BridgeController, defaultURL string, logger customlog.Logger) *ConnectionHandler {
	if bridge == nil {
		panic("BridgeController cannot be nil in NewConnectionHandler")
	}
	if logger == nil {
		logger = customlog.NewNopLogger()
	}
	return &ConnectionHandler{bridge: bridge, defaultURL: defaultURL, logger: logger}
}

// RegisterConnectionRoutes registers the connection endpoints under /api/v1/connection.
func RegisterConnectionRoutes(app *fiber.App, h *ConnectionHandler) {
	group := app.Group("/api/v1/connection")
	group.Get("/", h.handleGetStatus)
	group.Post("/", h.handleConnect)
	group.Delete("/", h.handleDisconnect)
	group.Post("/toggle", h.handleToggle)
}

func (h *ConnectionHandler) status() ConnectionStatus {
	state := h.bridge.State()
	return ConnectionStatus{
		Online:   state == teleop.Connected,
		State:    state,
		Endpoint: h.bridge.Endpoint(),
	}
}

func (h *ConnectionHandler) handleGetStatus(c *fiber.Ctx) error {
	return c.JSON(h.status())
}

func (h *ConnectionHandler) handleConnect(c *fiber.Ctx) error {
	endpoint := h.defaultURL
	if len(c.Body()) > 0 {
		var req ConnectRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid connect request: "+err.Error())
		}
		if req.URL != "" {
			endpoint = req.URL
		}
	}
	return h.connect(c, endpoint)
}

func (h *ConnectionHandler) connect(c *fiber.Ctx, endpoint string) error {
	h.logger.Debugf("Connect requested to %s", endpoint)
	if err := h.bridge.Connect(c.UserContext(), endpoint); err != nil {
		h.logger.Warnf("Connect to %s failed: %v", endpoint, err)
		return bridgeError(err)
	}
	return c.JSON(h.status())
}

func (h *ConnectionHandler) handleDisconnect(c *fiber.Ctx) error {
	h.bridge.Disconnect()
	return c.JSON(h.status())
}

// handleToggle connects when disconnected and disconnects otherwise.
func (h *ConnectionHandler) handleToggle(c *fiber.Ctx) error {
	if h.bridge.State() == teleop.Disconnected {
		return h.connect(c, h.defaultURL)
	}
	h.bridge.Disconnect()
	return c.JSON(h.status())
}
