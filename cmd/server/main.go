package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jerryshell/eptrc/internal/config"
	"github.com/jerryshell/eptrc/internal/database"
	"github.com/jerryshell/eptrc/internal/routes"
	"github.com/jerryshell/eptrc/internal/services"
	"github.com/jerryshell/eptrc/internal/tasks"
	"github.com/jerryshell/eptrc/internal/tron"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)
	chain := tron.NewClient(cfg.TronGridBaseURL, cfg.ContractAddress)

	app := fiber.New(fiber.Config{
		AppName: "EPTRC",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg, chain)

	ctx := context.Background()
	tasks.New("reconcile", cfg.SessionTaskInterval, services.NewReconcileService(db, chain).Run).Start(ctx)
	tasks.New("notify", cfg.NotifyTaskInterval, services.NewNotifyService(db, cfg.WebhookKey).Run).Start(ctx)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
