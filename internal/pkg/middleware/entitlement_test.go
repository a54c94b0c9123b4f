package middleware

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/cache"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/config"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/entitlements"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/ledger"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/usercontext"
)

type memoryLedgerRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Subscription
}

func (r *memoryLedgerRepo) GetByCustomer(_ context.Context, customerID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[customerID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *memoryLedgerRepo) CreateIfAbsent(_ context.Context, sub *models.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[sub.CustomerID]; exists {
		return false, nil
	}
	copied := *sub
	r.rows[sub.CustomerID] = &copied
	return true, nil
}

func (r *memoryLedgerRepo) UpdateVersioned(_ context.Context, sub *models.Subscription, expectedVersion int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[sub.CustomerID]
	if !ok || row.Version != expectedVersion {
		return false, nil
	}
	copied := *sub
	copied.Version = expectedVersion + 1
	r.rows[sub.CustomerID] = &copied
	return true, nil
}

// newEntitlementApp wires a minimal app: a fake session middleware sets the
// user context, then the gate guards a probe route.
func newEntitlementApp(subs ...*models.Subscription) *fiber.App {
	repo := &memoryLedgerRepo{rows: make(map[string]*models.Subscription)}
	for _, sub := range subs {
		copied := *sub
		repo.rows[sub.CustomerID] = &copied
	}
	cfg := &config.Config{AdmissionCacheTTL: time.Minute, PastDueGrace: 72 * time.Hour}
	log := zap.NewNop()
	gate := entitlements.NewGate(cache.NewMemoryCache(), ledger.NewService(repo, log), cfg, log)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		customerID := c.Get("X-Test-Customer")
		c.Locals("USER_CONTEXT", usercontext.UserContext{
			UserID:     1,
			CustomerID: customerID,
			IsLoggedIn: customerID != "",
		})
		return c.Next()
	})
	app.Get("/probe", RequireEntitlement(gate), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"degraded": IsDegraded(c)})
	})
	return app
}

func TestRequireEntitlementAllow(t *testing.T) {
	app := newEntitlementApp(&models.Subscription{
		CustomerID: "cus_1", Status: models.SubscriptionStatusActive, PlanTier: models.PlanTierCrew, Version: 1,
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("X-Test-Customer", "cus_1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireEntitlementDeniesCanceled(t *testing.T) {
	app := newEntitlementApp(&models.Subscription{
		CustomerID: "cus_1", Status: models.SubscriptionStatusCanceled, Version: 2,
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("X-Test-Customer", "cus_1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
}

func TestRequireEntitlementDeniesUnknownCustomer(t *testing.T) {
	app := newEntitlementApp()

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("X-Test-Customer", "cus_ghost")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)
}

func TestRequireEntitlementUnauthenticated(t *testing.T) {
	app := newEntitlementApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/probe", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireEntitlementDegradedPassesThrough(t *testing.T) {
	periodEnd := time.Now().UTC().Add(-24 * time.Hour)
	app := newEntitlementApp(&models.Subscription{
		CustomerID:       "cus_1",
		Status:           models.SubscriptionStatusPastDue,
		PlanTier:         models.PlanTierStarter,
		CurrentPeriodEnd: &periodEnd,
		Version:          3,
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("X-Test-Customer", "cus_1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
