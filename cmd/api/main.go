package main

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"taskboard/configs"
	v1 "taskboard/internal/api/v1"
	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/middleware"
	"taskboard/internal/repository"
	"taskboard/internal/token"
	ws "taskboard/internal/websocket"
	"taskboard/pkg/database"
	"taskboard/pkg/logger"
)

func main() {
	logger.InitLoggers()
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	cfg := configs.LoadConfig()

	db := database.ConnectDB(cfg)
	defer db.Close()
	logger.SystemLogger.Info("Database connected")

	if err := repository.Migrate(db); err != nil {
		logger.ErrorLogger.Fatal("Migration failed", zap.Error(err))
	}
	if err := repository.Seed(db); err != nil {
		logger.ErrorLogger.Fatal("Seed failed", zap.Error(err))
	}

	rdb := database.ConnectRedis(cfg)
	defer rdb.Close()

	tokens := token.NewService(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	hub := ws.NewHub()
	go hub.Run()

	h := handlers.New(db, rdb, tokens, hub, cfg.UploadDir)

	app := fiber.New()

	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	v1.RegisterRoutes(app, h, tokens)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}
