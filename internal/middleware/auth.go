package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// APIKeyAuth validates the merchant X-API-KEY header on protected routes.
func APIKeyAuth(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-API-KEY")
		if provided == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "api.key.missing",
				"message": "Missing X-API-KEY header",
			})
		}

		if provided != apiKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "api.key.invalid",
				"message": "Invalid API key",
			})
		}

		return c.Next()
	}
}
