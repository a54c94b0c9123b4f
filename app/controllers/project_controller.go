package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

// HandleProjectList returns the caller's projects.
func HandleProjectList(c *fiber.Ctx) error {
	projects, err := gw.Repos.Project.GetByUserID(usercontext.GetUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "list_failed"})
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// HandleProjectCreate creates a project. Blocked under degraded access.
func HandleProjectCreate(c *fiber.Ctx) error {
	if err := rejectDegradedWrite(c); err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Address     string `json:"address"`
		BudgetCents int64  `json:"budget_cents"`
	}
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}

	project := &models.Project{
		UserID:      usercontext.GetUserID(c),
		Name:        req.Name,
		Address:     req.Address,
		BudgetCents: req.BudgetCents,
		Active:      true,
	}
	if err := gw.Repos.Project.Create(project); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "create_failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}
