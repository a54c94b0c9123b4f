package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in session for API routes and returns JSON 401.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireAdmin ensures a logged-in admin.
func RequireAdmin(c *fiber.Ctx) error {
	ctx := usercontext.GetUserContext(c)
	if !ctx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !ctx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin required",
		})
	}
	return c.Next()
}
