// handlers/progression_routes.go
package handlers

import (
	"reloop/middleware"
	"reloop/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(user fiber.Router, progressionService *services.ProgressionService, badgeService *services.BadgeService, wrappedService *services.WrappedService, missionService *services.MissionService) {
	// The profile is created on first access with whatever identity the gateway forwards.
	user.Get("/progress", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		prof, err := progressionService.EnsureProfile(c.UserContext(), userID, services.ProfileInput{
			Name:   c.Get("X-User-Name"),
			Email:  c.Get("X-User-Email"),
			Campus: c.Get("X-User-Campus"),
		})
		if err != nil {
			return sendError(c, err, "failed to load progress")
		}

		progress := services.GetLevelProgress(prof.XP)
		return c.JSON(fiber.Map{
			"id":             prof.ID,
			"name":           prof.Name,
			"campus":         prof.Campus,
			"xp":             prof.XP,
			"coins":          prof.Coins,
			"level":          progress.Level,
			"title":          services.GetLevelTitle(progress.Level),
			"level_progress": progress,
			"items_traded":   prof.ItemsTraded,
			"items_sold":     prof.ItemsSold,
			"co2_saved":      prof.CO2Saved,
			"messages_sent":  prof.MessagesSent,
			"items_scanned":  prof.ItemsScanned,
		})
	})

	user.Get("/progress/badges", func(c *fiber.Ctx) error {
		badges, err := badgeService.GetBadges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return sendError(c, err, "failed to get badges")
		}
		return c.JSON(badges)
	})

	user.Post("/progress/badges/check", func(c *fiber.Ctx) error {
		eval, err := badgeService.EvaluateBadges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return sendError(c, err, "badge evaluation failed")
		}
		return c.JSON(eval)
	})

	user.Get("/wrapped", func(c *fiber.Ctx) error {
		stats, err := wrappedService.GetWrappedStats(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return sendError(c, err, "failed to build wrapped stats")
		}
		return c.JSON(stats)
	})

	// message | listing | story
	user.Post("/activity/:kind", func(c *fiber.Ctx) error {
		progress, err := missionService.RecordActivity(c.UserContext(), middleware.UserID(c), c.Params("kind"))
		if err != nil {
			return sendError(c, err, "failed to record activity")
		}
		return c.JSON(progress)
	})
}

func SetupAdminRoutes(admin fiber.Router, progressionService *services.ProgressionService) {
	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}

		result, err := progressionService.AwardXP(c.UserContext(), req.UserID, req.XP, req.Reason)
		if err != nil {
			return sendError(c, err, "XP award failed")
		}

		return c.JSON(fiber.Map{
			"message":  "XP granted successfully",
			"user_id":  req.UserID,
			"xp":       req.XP,
			"total_xp": result.NewXP,
			"level_up": result.LevelUp,
		})
	})
}
