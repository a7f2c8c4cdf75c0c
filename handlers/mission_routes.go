// handlers/mission_routes.go
package handlers

import (
	"reloop/middleware"
	"reloop/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMissionRoutes(user fiber.Router, missionService *services.MissionService) {
	user.Get("/missions", func(c *fiber.Ctx) error {
		missions, err := missionService.GetDailyMissions(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return sendError(c, err, "failed to get missions")
		}
		return c.JSON(fiber.Map{
			"date":     missionService.Today(),
			"missions": missions,
		})
	})

	user.Post("/missions/login", func(c *fiber.Ctx) error {
		progress, err := missionService.TrackDailyLogin(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return sendError(c, err, "failed to track login")
		}
		return c.JSON(progress)
	})

	// Only self-reported missions; scan_items and complete_trade move with their own flows.
	user.Post("/missions/:id/progress", func(c *fiber.Ctx) error {
		var req struct {
			Increment int64 `json:"increment"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, err)
			}
		}
		if req.Increment == 0 {
			req.Increment = 1
		}

		progress, err := missionService.ReportMissionProgress(c.UserContext(), middleware.UserID(c), c.Params("id"), req.Increment)
		if err != nil {
			return sendError(c, err, "failed to update mission progress")
		}
		return c.JSON(progress)
	})

	user.Post("/missions/:id/claim", func(c *fiber.Ctx) error {
		result, err := missionService.ClaimMissionReward(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success":  true,
			"xp":       result.XPAwarded,
			"coins":    result.CoinsAwarded,
			"level_up": result.LevelUp,
		})
	})
}
