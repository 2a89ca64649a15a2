package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RegisterConsoleRoutes registers the console scrollback endpoints.
func RegisterConsoleRoutes(app *fiber.App, console ConsoleLog) {
	group := app.Group("/api/v1/console")

	group.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(ConsoleLines{Lines: console.Lines()})
	})

	group.Post("/", func(c *fiber.Ctx) error {
		var req ConsoleMessage
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid console message: "+err.Error())
		}
		msg := strings.TrimSpace(req.Message)
		if msg == "" {
			return fiber.NewError(fiber.StatusBadRequest, "message cannot be empty")
		}
		console.AppendUser(msg)
		return c.Status(fiber.StatusCreated).JSON(ConsoleLines{Lines: console.Lines()})
	})
}
