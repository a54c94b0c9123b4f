package entitlements

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/cache"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/config"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/ledger"
)

// countingRepo tracks ledger reads so tests can assert cache behavior.
type countingRepo struct {
	mu          sync.Mutex
	rows        map[string]*models.Subscription
	reads       int
	sawDeadline bool
	fail        error
}

func newCountingRepo() *countingRepo {
	return &countingRepo{rows: make(map[string]*models.Subscription)}
}

func (r *countingRepo) GetByCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	_, r.sawDeadline = ctx.Deadline()
	if r.fail != nil {
		return nil, r.fail
	}
	row, ok := r.rows[customerID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *countingRepo) CreateIfAbsent(_ context.Context, sub *models.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[sub.CustomerID]; exists {
		return false, nil
	}
	copied := *sub
	r.rows[sub.CustomerID] = &copied
	return true, nil
}

func (r *countingRepo) UpdateVersioned(_ context.Context, sub *models.Subscription, expectedVersion int64) (bool, error) {
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

func (r *countingRepo) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func (r *countingRepo) put(sub *models.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *sub
	r.rows[sub.CustomerID] = &copied
}

func newTestGate() (*Gate, *countingRepo) {
	cfg := &config.Config{
		AdmissionCacheTTL: time.Minute,
		PastDueGrace:      72 * time.Hour,
		StorageTimeout:    5 * time.Second,
	}
	repo := newCountingRepo()
	svc := ledger.NewService(repo, zap.NewNop())
	return NewGate(cache.NewMemoryCache(), svc, cfg, zap.NewNop()), repo
}

func TestCheckAccessAllow(t *testing.T) {
	gate, repo := newTestGate()
	repo.put(&models.Subscription{CustomerID: "cus_1", Status: models.SubscriptionStatusActive, PlanTier: models.PlanTierCrew, Version: 1})

	decision, err := gate.CheckAccess(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, Allow, decision.Verdict)
}

func TestCheckAccessUnknownCustomerDenied(t *testing.T) {
	gate, _ := newTestGate()

	decision, err := gate.CheckAccess(context.Background(), "cus_missing")
	require.NoError(t, err)
	assert.Equal(t, Deny, decision.Verdict)
}

func TestCheckAccessCachesLedgerRead(t *testing.T) {
	gate, repo := newTestGate()
	repo.put(&models.Subscription{CustomerID: "cus_1", Status: models.SubscriptionStatusActive, Version: 1})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := gate.CheckAccess(ctx, "cus_1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.readCount())
}

func TestCheckAccessCachesMissingCustomer(t *testing.T) {
	gate, repo := newTestGate()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := gate.CheckAccess(ctx, "cus_missing")
		require.NoError(t, err)
		assert.Equal(t, Deny, decision.Verdict)
	}
	assert.Equal(t, 1, repo.readCount())
}

func TestInvalidateForcesFreshRead(t *testing.T) {
	gate, repo := newTestGate()
	repo.put(&models.Subscription{CustomerID: "cus_1", Status: models.SubscriptionStatusActive, Version: 1})
	ctx := context.Background()

	decision, err := gate.CheckAccess(ctx, "cus_1")
	require.NoError(t, err)
	require.Equal(t, Allow, decision.Verdict)

	repo.put(&models.Subscription{CustomerID: "cus_1", Status: models.SubscriptionStatusCanceled, Version: 2})

	// Without invalidation the cached Allow would linger for the TTL.
	require.NoError(t, gate.Invalidate(ctx, "cus_1"))

	decision, err = gate.CheckAccess(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, Deny, decision.Verdict)
	assert.Equal(t, 2, repo.readCount())
}

func TestCheckAccessStorageErrorSurfaces(t *testing.T) {
	gate, repo := newTestGate()
	repo.fail = errors.New("connection refused")

	_, err := gate.CheckAccess(context.Background(), "cus_1")
	assert.Error(t, err)
}

func TestCheckAccessDegradedWindow(t *testing.T) {
	gate, repo := newTestGate()
	periodEnd := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	repo.put(&models.Subscription{
		CustomerID:       "cus_1",
		Status:           models.SubscriptionStatusPastDue,
		PlanTier:         models.PlanTierCrew,
		CurrentPeriodEnd: &periodEnd,
		Version:          3,
	})
	ctx := context.Background()

	// Two days past the period end, inside the 72h grace window.
	gate.now = func() time.Time { return periodEnd.Add(48 * time.Hour) }
	decision, err := gate.CheckAccess(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, Degrade, decision.Verdict)

	// Four days past, grace elapsed.
	gate.now = func() time.Time { return periodEnd.Add(96 * time.Hour) }
	decision, err = gate.CheckAccess(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, Deny, decision.Verdict)
}

func TestCheckAccessBoundsStorageCalls(t *testing.T) {
	gate, repo := newTestGate()
	repo.put(&models.Subscription{CustomerID: "cus_1", Status: models.SubscriptionStatusActive, Version: 1})

	// The caller's context carries no deadline; the gate supplies one so a
	// stalled ledger round trip cannot block the request forever.
	_, err := gate.CheckAccess(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.True(t, repo.sawDeadline)
}

func TestCheckAccessSurvivesCanceledCaller(t *testing.T) {
	gate, repo := newTestGate()
	repo.put(&models.Subscription{CustomerID: "cus_1", Status: models.SubscriptionStatusActive, Version: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The populate path runs detached from the caller, so a canceled
	// request still resolves and warms the cache for everyone else.
	decision, err := gate.CheckAccess(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, Allow, decision.Verdict)
}

func TestCheckAccessConcurrentMissesCollapse(t *testing.T) {
	gate, repo := newTestGate()
	repo.put(&models.Subscription{CustomerID: "cus_1", Status: models.SubscriptionStatusActive, Version: 1})
	ctx := context.Background()

	const callers = 16
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := gate.CheckAccess(ctx, "cus_1")
			assert.NoError(t, err)
			assert.Equal(t, Allow, decision.Verdict)
		}()
	}
	wg.Wait()

	// Singleflight collapses simultaneous misses; late arrivals hit the
	// cache. Either way the read count stays far below the caller count.
	assert.Less(t, repo.readCount(), callers)
}
