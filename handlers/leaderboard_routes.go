// handlers/leaderboard_routes.go
package handlers

import (
	"reloop/middleware"
	"reloop/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app fiber.Router, user fiber.Router, leaderboardService *services.LeaderboardService) {
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		sortBy := c.Query("sort", "xp")
		entries, err := leaderboardService.GetLeaderboard(c.UserContext(), sortBy, c.QueryInt("limit", services.DefaultLeaderboardLimit))
		if err != nil {
			return sendError(c, err, "failed to get leaderboard")
		}
		return c.JSON(fiber.Map{
			"sort":    sortBy,
			"entries": entries,
		})
	})

	user.Get("/rank", func(c *fiber.Ctx) error {
		rank, err := leaderboardService.GetUserRank(c.UserContext(), middleware.UserID(c), c.Query("sort", "xp"))
		if err != nil {
			return sendError(c, err, "failed to get rank")
		}
		return c.JSON(rank)
	})
}
