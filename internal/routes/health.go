package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes wires liveness and readiness endpoints.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	app.Get("/readyz", func(c *fiber.Ctx) error {
		if d.DB != nil {
			if err := d.DB.Ping(c.UserContext()); err != nil {
				return fiber.NewError(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		if d.Cache != nil {
			if err := d.Cache.Ping(c.UserContext()).Err(); err != nil {
				return fiber.NewError(http.StatusServiceUnavailable, "redis unavailable")
			}
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ready"})
	})
}
