// handlers/scanner_routes.go
package handlers

import (
	"reloop/middleware"
	"reloop/services"

	"github.com/gofiber/fiber/v2"
)

func SetupScannerRoutes(scanner fiber.Router, scannerService *services.ScannerService) {
	scanner.Post("/analyze", func(c *fiber.Ctx) error {
		var req struct {
			Image string `json:"image"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}

		result, err := scannerService.Analyze(c.UserContext(), middleware.UserID(c), req.Image)
		if err != nil {
			return sendError(c, err, "scan failed")
		}
		return c.JSON(fiber.Map{
			"success": true,
			"item":    result,
		})
	})

	scanner.Get("/history", func(c *fiber.Ctx) error {
		scans, err := scannerService.ScanHistory(c.UserContext(), middleware.UserID(c), c.QueryInt("limit", services.DefaultScanHistoryLimit))
		if err != nil {
			return sendError(c, err, "failed to get scan history")
		}
		return c.JSON(scans)
	})
}
