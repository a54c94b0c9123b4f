package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/metrics/counter"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/webhook"
)

// HandleBillingWebhook is the billing provider's delivery endpoint. It sits
// outside the session-auth path; the raw body plus signature header is the
// whole trust model. 2xx acknowledges applied, duplicate and stale events
// alike so the provider never retry-storms us; signature and parse failures
// are non-2xx so the provider retries.
func HandleBillingWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("X-Billing-Signature")

	ctx, cancel := storageContext(c)
	defer cancel()
	result, err := gw.Ingestor.Ingest(ctx, rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrSignatureInvalid):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		case errors.Is(err, webhook.ErrMalformedPayload), errors.Is(err, webhook.ErrMissingOrderField):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_failed"})
		}
	}

	_ = counter.AddWebhookOutcome(result.Code.String())
	return c.JSON(fiber.Map{"ok": true, "outcome": result.Code.String()})
}

// HandleEntitlementStatus reports the caller's current admission decision.
func HandleEntitlementStatus(c *fiber.Ctx) error {
	ctx, cancel := storageContext(c)
	defer cancel()
	decision, err := gw.Gate.CheckAccess(ctx, usercontext.GetCustomerID(c))
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "entitlement_unavailable"})
	}

	_ = counter.AddAdmissionVerdict(string(decision.Verdict))

	resp := fiber.Map{"verdict": string(decision.Verdict)}
	if decision.Reason != "" {
		resp["reason"] = decision.Reason
	}
	return c.JSON(resp)
}

// HandleOpsMetrics dumps the Redis-side gateway counters. Guarded by the
// service API key, not a user session.
func HandleOpsMetrics(c *fiber.Ctx) error {
	snap, err := counter.Snapshot(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "metrics_unavailable"})
	}
	return c.JSON(snap)
}
