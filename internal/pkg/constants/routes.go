package constants

// Static route constants
const (
	APIV1Route          = "/api/v1"
	OpsRoute            = "/api/v1/ops"
	BillingWebhookRoute = "/webhooks/billing"
	// OAuth path prefix skipped by the session user-context middleware
	OAuthRoutePrefix = "/auth/"
)
