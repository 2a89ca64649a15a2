package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/robocyber/control-station/pkg/config"
	customlog "github.com/robocyber/control-station/pkg/log"
	"github.com/robocyber/control-station/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	profileService services.DriveProfileService
	logger         customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(profileService services.DriveProfileService, logger customlog.Logger) *ConfigHandler {
	if profileService == nil {
		panic("DriveProfileService cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// RegisterConfigRoutes registers the configuration API endpoints with the Fiber app.
func RegisterConfigRoutes(app *fiber.App, profileService services.DriveProfileService, logger customlog.Logger) {
	h := NewConfigHandler(profileService, logger)

	apiGroup := app.Group("/api/v1/config")
	apiGroup.Get("/drive", h.handleGetDriveProfile)
	apiGroup.Put("/drive", h.handleUpdateDriveProfile)

	logger.Infof("Registered drive profile API endpoints under /api/v1/config")
}

// handleGetDriveProfile handles GET requests to retrieve the drive profile YAML.
func (h *ConfigHandler) handleGetDriveProfile(c *fiber.Ctx) error {
	h.logger.Debugf("Handling GET request for /api/v1/config/drive")
	yamlData, err := h.profileService.GetCurrentProfileYAML()
	if err != nil {
		h.logger.Errorf("Failed to get drive profile YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve drive profile: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}

// handleUpdateDriveProfile handles PUT requests to replace the drive profile.
func (h *ConfigHandler) handleUpdateDriveProfile(c *fiber.Ctx) error {
	h.logger.Debugf("Handling PUT request for /api/v1/config/drive")

	switch c.Get(fiber.HeaderContentType) {
	case "application/x-yaml", "application/yaml", "text/yaml":
	default:
		// Relaxed check, process anyway
		h.logger.Warnf("Received PUT request with unexpected Content-Type: %s", c.Get(fiber.HeaderContentType))
	}

	newProfileYAML := c.Body()
	if len(newProfileYAML) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	if err := h.profileService.UpdateProfile(newProfileYAML); err != nil {
		h.logger.Errorf("Failed to update drive profile: %v", err)
		if isBadInput(err) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Drive profile update failed: %v", err),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Internal server error during drive profile update: %v", err),
		})
	}

	profile := h.profileService.GetCurrentProfile()
	h.logger.Infof("Drive profile updated to %s (version %s)", profile.ProfileID, profile.Version)
	return c.JSON(fiber.Map{
		"message": "Drive profile updated successfully.",
		"profile": profile,
	})
}

// isBadInput reports whether err was caused by the submitted document.
func isBadInput(err error) bool {
	var v interface{ IsValidationError() bool }
	return errors.As(err, &v) || errors.Is(err, config.ErrInvalidYAML)
}
