package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/buildsuitehq/BuildSuite/app/controllers"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/cache"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/database"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/env"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app)

	startTokenSweeper(controllers.GetGateway())

	return app
}

// startTokenSweeper runs the periodic session-token cleanup on the shared
// gateway components. Hygiene only; redemption correctness never depends
// on it.
func startTokenSweeper(gw *controllers.Gateway) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), gw.Cfg.StorageTimeout)
			if _, err := gw.Tokens.Sweep(ctx); err != nil {
				gw.Log.Warn("token sweep failed", zap.Error(err))
			}
			cancel()
		}
	}()
}
