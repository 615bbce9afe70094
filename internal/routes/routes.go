package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jerryshell/eptrc/internal/config"
	"github.com/jerryshell/eptrc/internal/handlers"
	"github.com/jerryshell/eptrc/internal/middleware"
	"github.com/jerryshell/eptrc/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, chain services.ChainClient) {
	sessionService := services.NewSessionService(db, cfg.SessionExpires)
	collectionService := services.NewCollectionService(db, chain)

	healthHandler := handlers.NewHealthHandler(cfg)
	sessionHandler := handlers.NewPaymentSessionHandler(sessionService)
	walletHandler := handlers.NewWalletHandler(collectionService)

	app.Get("/", healthHandler.Show)

	session := app.Group("/paymentSession", middleware.APIKeyAuth(cfg.APIKey))
	session.Post("/create", sessionHandler.Create)
	session.Post("/detail", sessionHandler.Detail)

	wallet := app.Group("/wallet", middleware.APIKeyAuth(cfg.APIKey))
	wallet.Post("/collection", walletHandler.Collection)
}
