package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/buildsuitehq/BuildSuite/app/repository"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/config"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/entitlements"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/identity"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/ledger"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/token"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/webhook"
)

// Gateway bundles the session and entitlement components the controllers
// depend on. It is wired once at startup by the router.
type Gateway struct {
	Cfg      *config.Config
	Log      *zap.Logger
	Tokens   *token.Store
	Ledger   *ledger.Service
	Gate     *entitlements.Gate
	Ingestor *webhook.Ingestor
	Identity *identity.Adapter
	Repos    *repository.Repositories
}

var gw *Gateway

// InitializeGateway installs the wired gateway for the controller package.
func InitializeGateway(g *Gateway) {
	gw = g
}

// GetGateway returns the wired gateway. Used by startup code that needs the
// shared components (logger, config, token store) outside a request.
func GetGateway() *Gateway {
	return gw
}

// storageContext bounds one request-path storage round trip. Fiber's request
// context carries no deadline of its own, so without this a stalled
// connection would block the handler indefinitely.
func storageContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if gw.Cfg.StorageTimeout > 0 {
		return context.WithTimeout(c.Context(), gw.Cfg.StorageTimeout)
	}
	return context.WithCancel(c.Context())
}
