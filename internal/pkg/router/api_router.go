package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/app/controllers"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/constants"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Machine surface: static service key, no session.
	ops := app.Group(constants.OpsRoute, middleware.ServiceKeyMiddleware())
	ops.Get("/metrics", controllers.HandleOpsMetrics)

	v1 := app.Group(constants.APIV1Route, middleware.RequireAuth)

	// Entitlement status is reachable for any authenticated user, even when
	// the gate would deny business routes.
	v1.Get("/billing/entitlement", controllers.HandleEntitlementStatus)
	v1.Post("/invites", controllers.HandleInviteCreate)

	// Every business route runs behind the admission gate.
	gated := v1.Group("", middleware.RequireEntitlement(gateway.Gate))

	gated.Get("/invoices", controllers.HandleInvoiceList)
	gated.Post("/invoices", controllers.HandleInvoiceCreate)
	gated.Get("/invoices/:uuid", controllers.HandleInvoiceGet)
	gated.Delete("/invoices/:uuid", controllers.HandleInvoiceDelete)

	gated.Get("/projects", controllers.HandleProjectList)
	gated.Post("/projects", controllers.HandleProjectCreate)

	gated.Get("/vendors", controllers.HandleVendorList)
	gated.Post("/vendors", controllers.HandleVendorCreate)
}
