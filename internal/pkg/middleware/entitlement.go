package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/entitlements"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

// DegradedKey is set in Locals when the gate returns Degrade; handlers treat
// it as a read-only capability restriction.
const DegradedKey = "ENTITLEMENT_DEGRADED"

// RequireEntitlement runs the admission gate before business-logic handlers.
// Deny maps to 402, Degrade passes through with the capability flag set, and
// a gate infrastructure failure answers 503 so the client retries.
func RequireEntitlement(gate *entitlements.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := usercontext.GetUserContext(c)
		if !ctx.IsLoggedIn {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "login required",
			})
		}

		decision, err := gate.CheckAccess(c.Context(), ctx.CustomerID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "entitlement_unavailable",
			})
		}

		switch decision.Verdict {
		case entitlements.Allow:
			c.Locals(DegradedKey, false)
			return c.Next()
		case entitlements.Degrade:
			c.Locals(DegradedKey, true)
			return c.Next()
		default:
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":  "subscription_required",
				"reason": decision.Reason,
			})
		}
	}
}

// IsDegraded reports whether the current request runs under degraded access.
func IsDegraded(c *fiber.Ctx) bool {
	v, ok := c.Locals(DegradedKey).(bool)
	return ok && v
}
