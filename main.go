package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reloop/config"
	"reloop/handlers"
	"reloop/middleware"
	"reloop/services"
	"reloop/utils"
	"reloop/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var skipMigrate bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "reloop",
	Short:        "ReLoop gamification and trade verification engine",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the mission archive worker",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck
		if err := utils.Migrate(db); err != nil {
			return err
		}
		logger.Info("database migrated")
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive-missions",
	Short: "Archive and prune daily mission rows past the retention window, once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		store, err := archiveStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		n, err := workers.NewMissionArchiveWorker(db, store, cfg.MissionRetentionDays, logger).RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("mission archive finished", zap.Int("rows", n))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the schema on startup")
	}
	rootCmd.AddCommand(serveCmd, migrateCmd, archiveCmd)
}

func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build logger: %w", err)
	}
	db, err := utils.OpenDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("connected to database", zap.String("driver", cfg.DBDriver))
	return cfg, logger, db, nil
}

// archiveStore returns the R2 bucket when configured; nil means prune without archiving.
func archiveStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (workers.ObjectStore, error) {
	if !cfg.R2.Enabled() {
		logger.Warn("R2 not configured, expired missions will be pruned without an archive")
		return nil, nil
	}
	store, err := utils.NewR2Store(ctx, cfg.R2)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func buildServices(db *gorm.DB, cfg *config.Config, logger *zap.Logger) handlers.Services {
	progression := services.NewProgressionService(db, logger)
	badges := services.NewBadgeService(db, logger)
	missions := services.NewMissionService(db, progression, logger)
	leaderboard := services.NewLeaderboardService(db, logger)
	verification := services.NewVerificationService(db, logger)
	classifier := services.NewClassifierClient(cfg.ClassifierURL, cfg.ClassifierTimeout, cfg.ClassifierRPS, logger)

	return handlers.Services{
		Progression:  progression,
		Badges:       badges,
		Missions:     missions,
		Leaderboard:  leaderboard,
		Verification: verification,
		Trades:       services.NewTradeService(db, missions, badges, verification, logger),
		Scanner:      services.NewScannerService(db, classifier, progression, missions, badges, logger),
		Wrapped:      services.NewWrappedService(progression, badges, leaderboard, logger),
		Rewards:      services.NewRewardService(db, logger),
	}
}

func newApp(cfg *config.Config, svcs handlers.Services, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 15 * 1024 * 1024, // base64 photos
	})
	app.Use(recover.New())

	// 🔐 Only Gateway requests allowed, except health checks
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, logger, handlers.HealthPath, handlers.MetricsPath))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Classification is the expensive call; cap it per user.
	app.Use("/scanner/analyze", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Get("X-User-ID")
		},
	}))

	handlers.SetupRoutes(app, svcs, logger)
	return app
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if !skipMigrate {
		if err := utils.Migrate(db); err != nil {
			return err
		}
	}
	if cfg.ServiceToken == "" {
		logger.Warn("RELOOP_SERVICE_TOKEN is not set, every gateway request will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := archiveStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := workers.NewMissionArchiveWorker(db, store, cfg.MissionRetentionDays, logger).Start(ctx); err != nil {
		return err
	}

	app := newApp(cfg, buildServices(db, cfg, logger), logger)
	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()
	logger.Info("server running",
		zap.Int("port", cfg.Port),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Int("mission_retention_days", cfg.MissionRetentionDays),
	)

	<-ctx.Done()
	logger.Info("shutting down server")
	return app.ShutdownWithTimeout(10 * time.Second)
}
