package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/mail"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/metrics/counter"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/middleware"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/session"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/token"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

// HandleRegister creates a pending account and issues an email-verify token.
// Delivery of the token (mail) is an external collaborator; we only log it.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	customerID := "cus_" + uuid.NewString()
	user, err := models.CreateUser(req.Name, req.Email, req.Password, customerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed"})
	}
	user.CompanyName = req.CompanyName

	if err := gw.Repos.User.Create(user); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "registration_failed"})
	}

	ctx, cancel := storageContext(c)
	defer cancel()
	secret, err := gw.Tokens.Issue(ctx, token.EmailVerifyPayload{
		UserID: user.ID,
		Email:  user.Email,
	}, -1)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "token_issue_failed"})
	}
	go func(email, secret string) {
		if err := mail.SendVerificationMail(email, secret); err != nil {
			gw.Log.Error("verification mail failed", zap.String("email", email), zap.Error(err))
		}
	}(user.Email, secret)
	gw.Log.Info("verification mail queued", zap.Uint("user_id", user.ID))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          user.ID,
		"customer_id": user.CustomerID,
	})
}

// HandleVerifyEmail redeems an email-verify token and activates the account.
func HandleVerifyEmail(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	ctx, cancel := storageContext(c)
	defer cancel()
	payload, err := gw.Tokens.Redeem(ctx, req.Token, models.TokenTypeEmailVerify)
	if err != nil {
		return tokenFailureResponse(c)
	}
	verify := payload.(*token.EmailVerifyPayload)
	_ = counter.AddTokenRedemption(models.TokenTypeEmailVerify)

	user, err := gw.Repos.User.GetByID(verify.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "verification_failed"})
	}
	user.Status = models.STATUS_ACTIVE
	if err := gw.Repos.User.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "verification_failed"})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// HandleLogin authenticates with email and password and opens a session.
func HandleLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	// One generic failure message; no hint whether the email exists.
	user, err := gw.Repos.User.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) || !user.IsActive() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_failed"})
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

	now := time.Now()
	user.LastLoginAt = &now
	_ = gw.Repos.User.Update(user)

	return c.JSON(fiber.Map{"ok": true, "customer_id": user.CustomerID})
}

// HandleLogout destroys the session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleForgotPassword issues a password-reset token. The response is the
// same whether or not the email exists.
func HandleForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	user, err := gw.Repos.User.GetByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			gw.Log.Error("forgot-password lookup failed", zap.Error(err))
		}
		return c.JSON(fiber.Map{"ok": true})
	}

	ctx, cancel := storageContext(c)
	defer cancel()
	secret, err := gw.Tokens.Issue(ctx, token.PasswordResetPayload{UserID: user.ID}, -1)
	if err != nil {
		gw.Log.Error("password-reset issue failed", zap.Error(err))
		return c.JSON(fiber.Map{"ok": true})
	}
	go func(email, secret string) {
		if err := mail.SendPasswordResetMail(email, secret); err != nil {
			gw.Log.Error("password-reset mail failed", zap.String("email", email), zap.Error(err))
		}
	}(user.Email, secret)
	gw.Log.Info("password-reset mail queued", zap.Uint("user_id", user.ID))

	return c.JSON(fiber.Map{"ok": true})
}

// HandleResetPassword redeems a password-reset token and sets the new
// password.
func HandleResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	ctx, cancel := storageContext(c)
	defer cancel()
	payload, err := gw.Tokens.Redeem(ctx, req.Token, models.TokenTypePasswordReset)
	if err != nil {
		return tokenFailureResponse(c)
	}
	reset := payload.(*token.PasswordResetPayload)
	_ = counter.AddTokenRedemption(models.TokenTypePasswordReset)

	user, err := gw.Repos.User.GetByID(reset.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reset_failed"})
	}
	if err := user.SetPassword(req.Password); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reset_failed"})
	}
	if err := gw.Repos.User.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reset_failed"})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// HandleInviteAccept redeems an invite token and reports the invited role.
// Account creation for the invitee follows the normal registration flow.
func HandleInviteAccept(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	ctx, cancel := storageContext(c)
	defer cancel()
	payload, err := gw.Tokens.Redeem(ctx, req.Token, models.TokenTypeInvite)
	if err != nil {
		return tokenFailureResponse(c)
	}
	invite := payload.(*token.InvitePayload)
	_ = counter.AddTokenRedemption(models.TokenTypeInvite)

	return c.JSON(fiber.Map{"ok": true, "email": invite.Email, "role": invite.Role})
}

// HandleInviteCreate issues an invite token for another email address.
func HandleInviteCreate(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	if req.Role == "" {
		req.Role = models.ROLE_USER
	}

	ctx, cancel := storageContext(c)
	defer cancel()
	secret, err := gw.Tokens.Issue(ctx, token.InvitePayload{
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: usercontext.GetUserID(c),
	}, -1)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invite_failed"})
	}
	go func(email, secret string) {
		if err := mail.SendInviteMail(email, secret); err != nil {
			gw.Log.Error("invite mail failed", zap.String("email", email), zap.Error(err))
		}
	}(req.Email, secret)
	gw.Log.Info("invite mail queued", zap.String("email", req.Email))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}

// sessionClaims is the single source of the session key set written at
// login, whichever flow established the identity.
func sessionClaims(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		middleware.AuthKey:       true,
		middleware.UserIDKey:     user.ID,
		middleware.UserNameKey:   user.Name,
		middleware.CustomerIDKey: user.CustomerID,
		middleware.IsAdminKey:    user.Role == models.ROLE_ADMIN,
	}
}

// tokenFailureResponse is deliberately uniform across all redemption failure
// kinds so the endpoint cannot be used as an oracle; the store already
// logged the real reason.
func tokenFailureResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_token"})
}
