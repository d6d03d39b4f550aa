package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tapin-app/tapin-backend/app/controllers"
	"github.com/tapin-app/tapin-backend/pkg/config"
	"github.com/tapin-app/tapin-backend/pkg/database"
	"github.com/tapin-app/tapin-backend/pkg/logger"
	"github.com/tapin-app/tapin-backend/pkg/metrics"
	"github.com/tapin-app/tapin-backend/pkg/ratelimit"
	"github.com/tapin-app/tapin-backend/pkg/routes"
	"github.com/tapin-app/tapin-backend/pkg/scheduler"
	"github.com/tapin-app/tapin-backend/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	utils.ConfigureTokens(utils.TokenSettings{
		Secret:         cfg.JWTSecret,
		SupabaseSecret: cfg.SupabaseJWTSecret,
		AccessTTL:      time.Duration(cfg.AccessTokenMinutes) * time.Minute,
	})
	utils.DefaultMailer = utils.NewMailer(cfg.SMTP)
	utils.DefaultPush = utils.NewPushClient(cfg.ExpoAccessToken)
	utils.DefaultGiphy = utils.NewGiphyClient(cfg.GiphyAPIKey)
	controllers.Configure(cfg)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to the database")
	}
	defer database.CloseDB()

	app := fiber.New(fiber.Config{
		AppName:               "tapin-backend",
		ErrorHandler:          controllers.ErrorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logger.RequestLogger())
	app.Use(metrics.Middleware())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("TapIn API")
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok", "connected_users": len(utils.DefaultNotifier.ActiveUserIDs())})
	})
	app.Get("/metrics", metrics.Handler())

	limiters := routes.Limiters{
		Messages: ratelimit.New(cfg.RateLimit.MessageLimit, cfg.RateLimit.MessageWindow),
		Joins:    ratelimit.New(cfg.RateLimit.JoinLimit, cfg.RateLimit.JoinWindow),
	}

	routes.RegisterAuthRoutes(app)
	routes.RegisterProfileRoutes(app)
	routes.RegisterChatRoutes(app, limiters)
	routes.RegisterSocialRoutes(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	controllers.StartMessageDispatcher(ctx)

	reaper := scheduler.NewReaper(db, cfg.RateLimit.IdleAfter, limiters.Messages, limiters.Joins)
	sched, err := scheduler.Start(reaper, cfg.ReaperInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	go func() {
		<-ctx.Done()
		log.Info().Str("event", "shutdown").Msg("shutting down")
		if err := sched.Shutdown(); err != nil {
			log.Error().Err(err).Msg("scheduler shutdown")
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("event", "startup").Str("port", cfg.Port).Str("env", cfg.Environment).Msg("listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
