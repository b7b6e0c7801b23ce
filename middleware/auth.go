// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const UserIDHeader = "X-User-ID"

// UserContextMiddleware puts the acting user's id, set by the Gateway, into
// c.Locals("user_id"). Requests without it are rejected.
func UserContextMiddleware(logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(UserIDHeader))
		if userID == "" {
			logger.Warn("❌ [USER_CTX] X-User-ID missing", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthenticated",
				"message": "missing X-User-ID; request must come through gateway with auth context",
			})
		}

		c.Locals("user_id", userID)
		logger.Debug("👤 [USER_CTX] request", zap.String("user_id", userID), zap.String("path", c.Path()))
		return c.Next()
	}
}

// UserID returns the id stored by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
