package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/middleware"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

type invoiceRequest struct {
	ProjectID   uint   `json:"project_id"`
	VendorID    uint   `json:"vendor_id"`
	Number      string `json:"number"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Notes       string `json:"notes"`
}

// HandleInvoiceList returns the caller's invoices, newest first.
func HandleInvoiceList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)

	invoices, err := gw.Repos.Invoice.GetByUserID(userID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list_failed"})
	}
	total, _ := gw.Repos.Invoice.CountByUserID(userID)

	return c.JSON(fiber.Map{"invoices": invoices, "total": total})
}

// HandleInvoiceCreate creates an invoice. Blocked under degraded access.
func HandleInvoiceCreate(c *fiber.Ctx) error {
	if err := rejectDegradedWrite(c); err != nil {
		return err
	}

	var req invoiceRequest
	if err := c.BodyParser(&req); err != nil || req.Number == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	invoice := &models.Invoice{
		UUID:        uuid.NewString(),
		UserID:      usercontext.GetUserID(c),
		ProjectID:   req.ProjectID,
		VendorID:    req.VendorID,
		Number:      req.Number,
		Status:      models.InvoiceStatusDraft,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Notes:       req.Notes,
	}
	if err := gw.Repos.Invoice.Create(invoice); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// HandleInvoiceGet returns one invoice owned by the caller.
func HandleInvoiceGet(c *fiber.Ctx) error {
	invoice, err := gw.Repos.Invoice.GetByUUID(c.Params("uuid"))
	if err != nil || invoice.UserID != usercontext.GetUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	return c.JSON(invoice)
}

// HandleInvoiceDelete removes an invoice. Blocked under degraded access.
func HandleInvoiceDelete(c *fiber.Ctx) error {
	if err := rejectDegradedWrite(c); err != nil {
		return err
	}

	invoice, err := gw.Repos.Invoice.GetByUUID(c.Params("uuid"))
	if err != nil || invoice.UserID != usercontext.GetUserID(c) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	}
	if err := gw.Repos.Invoice.Delete(invoice.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "delete_failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// rejectDegradedWrite enforces read-only access while a customer is in the
// past-due grace window.
func rejectDegradedWrite(c *fiber.Ctx) error {
	if middleware.IsDegraded(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "read_only",
			"message": "account is in a past-due grace period",
		})
	}
	return nil
}
