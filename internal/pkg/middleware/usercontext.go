package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/constants"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/database"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/session"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

// Session keys written at login.
const (
	AuthKey       = "authenticated"
	UserIDKey     = "user_id"
	UserNameKey   = "username"
	CustomerIDKey = "customer_id"
	IsAdminKey    = "is_admin"
)

// UserContextMiddleware resolves the session into a UserContext for every
// request. OAuth routes are skipped because goth_fiber runs its own session
// store there.
func UserContextMiddleware(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), constants.OAuthRoutePrefix) {
		return c.Next()
	}

	anonymous := func() error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{IsLoggedIn: false})
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous()
	}

	userID := sess.Get(UserIDKey)
	if userID == nil {
		return anonymous()
	}

	customerID := session.GetSessionValue(c, CustomerIDKey)
	if customerID == "" {
		// Older sessions predate the customer id key; backfill from the DB.
		if db := database.GetDB(); db != nil {
			var user models.User
			if err := db.First(&user, userID.(uint)).Error; err == nil {
				customerID = user.CustomerID
				_ = session.SetSessionValue(c, CustomerIDKey, customerID)
			}
		}
	}

	isAdmin := sess.Get(IsAdminKey)
	c.Locals("USER_CONTEXT", usercontext.UserContext{
		UserID:     userID.(uint),
		CustomerID: customerID,
		Username:   session.GetSessionValue(c, UserNameKey),
		IsLoggedIn: true,
		IsAdmin:    isAdmin != nil && isAdmin.(bool),
	})

	return c.Next()
}
