package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/env"
)

// ServiceKeyMiddleware authenticates machine callers (ops tooling, internal
// jobs) with a static service key. It never touches the session store.
func ServiceKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := env.GetEnv("GATEWAY_SERVICE_KEY", "")
		if expected == "" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}

		provided := extractServiceKey(c)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid service key"})
		}

		return c.Next()
	}
}

func extractServiceKey(c *fiber.Ctx) string {
	if key := strings.TrimSpace(c.Get("X-API-Key")); key != "" {
		return key
	}
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}
