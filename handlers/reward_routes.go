package handlers

import (
	"reloop/middleware"
	"reloop/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRewardRoutes(user fiber.Router, rewardService *services.RewardService) {
	user.Get("/rewards", func(c *fiber.Ctx) error {
		rewards, err := rewardService.ListRewards(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return sendError(c, err, "failed to get rewards")
		}
		return c.JSON(rewards)
	})

	user.Get("/rewards/redeemed", func(c *fiber.Ctx) error {
		rows, err := rewardService.Redemptions(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return sendError(c, err, "failed to get redemptions")
		}
		return c.JSON(rows)
	})

	user.Post("/rewards/:id/redeem", func(c *fiber.Ctx) error {
		result, err := rewardService.RedeemReward(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success":     true,
			"reward":      result.Reward,
			"coins_spent": result.CoinsSpent,
			"coins":       result.Coins,
		})
	})
}
