// handlers/system_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	HealthPath  = "/healthz"
	MetricsPath = "/metrics"
)

func SetupSystemRoutes(app fiber.Router) {
	app.Get(HealthPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
}
