package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

// HandleVendorList returns the caller's vendors.
func HandleVendorList(c *fiber.Ctx) error {
	vendors, err := gw.Repos.Vendor.GetByUserID(usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list_failed"})
	}
	return c.JSON(fiber.Map{"vendors": vendors})
}

// HandleVendorCreate creates a vendor. Blocked under degraded access.
func HandleVendorCreate(c *fiber.Ctx) error {
	if err := rejectDegradedWrite(c); err != nil {
		return err
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
		Trade string `json:"trade"`
	}
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	vendor := &models.Vendor{
		UserID: usercontext.GetUserID(c),
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Trade:  req.Trade,
	}
	if err := gw.Repos.Vendor.Create(vendor); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create_failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(vendor)
}
