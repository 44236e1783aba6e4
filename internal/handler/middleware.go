package handler

import (
	"strings"
	"time"

	"github.com/appsparrow/streakzilla/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "user_id"

// UserContext reads the identity the gateway put on the request. The engine
// does no authentication of its own.
func UserContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID",
				"code":  "UNAUTHENTICATED",
			})
		}
		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// RequestLogger logs one line per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.WithFields(map[string]interface{}{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
			"user_id":  currentUser(c),
		}).Debug("request")
		return err
	}
}
