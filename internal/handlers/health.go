package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jerryshell/eptrc/internal/config"
)

// HealthHandler reports build and chain binding info.
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) Show(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version":         config.Version,
		"tronGridBaseUrl": h.cfg.TronGridBaseURL,
		"contractAddress": h.cfg.ContractAddress,
	})
}
