package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/robocyber/control-station/domain/teleop"
)

// ErrorHandler renders every error as {"error": "..."}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// bridgeError maps bridge client errors to HTTP errors.
func bridgeError(err error) error {
	var connErr *teleop.ConnectError
	switch {
	case errors.Is(err, teleop.ErrPrecondition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, teleop.ErrInvalidEndpoint):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, teleop.ErrConnectAborted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.As(err, &connErr):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}
