package controllers

import (
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/session"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

// HandleOAuthBegin redirects to the provider's consent screen.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider exchange and hands the claims
// to the identity adapter. A resolved identity logs in; unknown identities
// get a pending-link token for the follow-up step.
func HandleOAuthCallback(c *fiber.Ctx) error {
	claims, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "oauth_failed"})
	}

	ctx, cancel := storageContext(c)
	defer cancel()
	result, err := gw.Identity.Resolve(ctx, claims)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "oauth_failed"})
	}

	if result.PendingLinkToken != "" {
		return c.JSON(fiber.Map{
			"linked":     false,
			"link_token": result.PendingLinkToken,
		})
	}

	user, err := gw.Repos.User.GetByID(result.Identity.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "oauth_failed"})
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session_failed"})
	}
	for key, value := range sessionClaims(user) {
		sess.Set(key, value)
	}
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "session_failed"})
	}

	return c.JSON(fiber.Map{"linked": true, "customer_id": user.CustomerID})
}

// HandleOAuthCompleteLink attaches a pending provider identity to the
// logged-in account by redeeming the oauth-link token.
func HandleOAuthCompleteLink(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	ctx, cancel := storageContext(c)
	defer cancel()
	ident, err := gw.Identity.CompleteLink(ctx, req.Token, usercontext.GetUserID(c))
	if err != nil {
		return tokenFailureResponse(c)
	}

	return c.JSON(fiber.Map{"linked": true, "customer_id": ident.CustomerID})
}
