package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// InternalKey guards bot-to-backend endpoints with a shared header secret.
func InternalKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("X-Internal-Key") != key {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Unauthorized",
			})
		}
		return c.Next()
	}
}
