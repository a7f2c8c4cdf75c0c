// handlers/routes.go
package handlers

import (
	"reloop/middleware"
	"reloop/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Progression  *services.ProgressionService
	Badges       *services.BadgeService
	Missions     *services.MissionService
	Leaderboard  *services.LeaderboardService
	Verification *services.VerificationService
	Trades       *services.TradeService
	Scanner      *services.ScannerService
	Wrapped      *services.WrappedService
	Rewards      *services.RewardService
}

// SetupRoutes mounts every route. Gateway auth is applied by the caller on the app.
func SetupRoutes(app *fiber.App, s Services, logger *zap.Logger) {
	userCtx := middleware.UserContextMiddleware(logger)

	user := app.Group("/user", userCtx)
	SetupProgressionRoutes(user, s.Progression, s.Badges, s.Wrapped, s.Missions)
	SetupMissionRoutes(user, s.Missions)
	SetupRewardRoutes(user, s.Rewards)

	SetupLeaderboardRoutes(app, user, s.Leaderboard)
	SetupTradeRoutes(app.Group("/trades", userCtx), s.Trades, s.Verification)
	SetupScannerRoutes(app.Group("/scanner", userCtx), s.Scanner)

	admin := app.Group("/s/admin", userCtx, middleware.RequireRole("admin"))
	SetupAdminRoutes(admin, s.Progression)

	SetupSystemRoutes(app)
}
