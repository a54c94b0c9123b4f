package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/app/controllers"
	"github.com/buildsuitehq/BuildSuite/app/repository"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/cache"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/config"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/constants"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/database"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/entitlements"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/identity"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/ledger"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/middleware"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/oauth"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/observability"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/session"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/token"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/webhook"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/env"
)

type HttpRouter struct {
}

// gateway is shared with the API router, which mounts the entitlement
// middleware from it.
var gateway *controllers.Gateway

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	session.NewSessionStore()
	oauth.Setup()

	app.Use(middleware.UserContextMiddleware)

	gateway = buildGateway()
	controllers.InitializeGateway(gateway)

	// Auth flows: open endpoints issuing and redeeming session tokens.
	app.Post("/register", controllers.HandleRegister)
	app.Post("/verify-email", controllers.HandleVerifyEmail)
	app.Post("/login", controllers.HandleLogin)
	app.Post("/logout", controllers.HandleLogout)
	app.Post("/forgot-password", controllers.HandleForgotPassword)
	app.Post("/reset-password", controllers.HandleResetPassword)
	app.Post("/invite/accept", controllers.HandleInviteAccept)

	// OAuth handoff via goth_fiber.
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Post("/oauth/link", middleware.RequireAuth, controllers.HandleOAuthCompleteLink)

	// The billing provider posts here with a signature header; this route
	// must never join the session-cookie auth path.
	app.Post(constants.BillingWebhookRoute, controllers.HandleBillingWebhook)
}

// buildGateway wires the session and entitlement components once at startup.
func buildGateway() *controllers.Gateway {
	log, err := observability.NewLogger(env.GetEnv("LOG_LEVEL", "info"))
	if err != nil {
		panic(err)
	}

	cfg := config.Load()
	db := database.GetDB()

	tokens := token.NewStoreFromDB(db, cfg, log)
	ledgerSvc := ledger.NewServiceFromDB(db, log)
	gate := entitlements.NewGate(cache.NewRedisCache(), ledgerSvc, cfg, log)
	ingestor := webhook.NewIngestorFromDB(db, gate, cfg, log)

	return &controllers.Gateway{
		Cfg:      cfg,
		Log:      log,
		Tokens:   tokens,
		Ledger:   ledgerSvc,
		Gate:     gate,
		Ingestor: ingestor,
		Identity: identity.NewAdapterFromDB(db, tokens, log),
		Repos:    repository.NewFactory(db).GetRepositories(),
	}
}
