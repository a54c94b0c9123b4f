package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

// memoryRepository mimics the unique-key and version-gate behavior of the
// GORM repository under a single lock.
type memoryRepository struct {
	mu   sync.Mutex
	rows map[string]*models.Subscription
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rows: make(map[string]*models.Subscription)}
}

func (r *memoryRepository) GetByCustomer(_ context.Context, customerID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[customerID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *memoryRepository) CreateIfAbsent(_ context.Context, sub *models.Subscription) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[sub.CustomerID]; exists {
		return false, nil
	}
	copied := *sub
	r.rows[sub.CustomerID] = &copied
	return true, nil
}

func (r *memoryRepository) UpdateVersioned(_ context.Context, sub *models.Subscription, expectedVersion int64) (bool, error) {
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

func newTestService() (*Service, *memoryRepository) {
	repo := newMemoryRepository()
	return NewService(repo, zap.NewNop()), repo
}

func periodEnd(daysFromNow int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, daysFromNow)
	return &t
}

func TestApplyCreates(t *testing.T) {
	svc, _ := newTestService()

	outcome, sub, err := svc.Apply(context.Background(), Transition{
		CustomerID:       "cus_1",
		Status:           "active",
		PlanTier:         models.PlanTierCrew,
		CurrentPeriodEnd: periodEnd(30),
		EventSeq:         1,
	})
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, int64(1), sub.Version)
	assert.Equal(t, int64(1), sub.LastEventSeq)
}

func TestApplyAdvancesVersion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.Apply(ctx, Transition{CustomerID: "cus_1", Status: "trialing", PlanTier: models.PlanTierStarter, EventSeq: 1})
	require.NoError(t, err)

	outcome, sub, err := svc.Apply(ctx, Transition{CustomerID: "cus_1", Status: "active", PlanTier: models.PlanTierCrew, EventSeq: 2})
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, int64(2), sub.Version)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, models.PlanTierCrew, sub.PlanTier)
}

func TestApplyStaleEventKeepsState(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, _, err := svc.Apply(ctx, Transition{CustomerID: "cus_1", Status: "active", PlanTier: models.PlanTierSite, EventSeq: 5})
	require.NoError(t, err)

	// An older cancellation delivered late must not regress the ledger.
	outcome, sub, err := svc.Apply(ctx, Transition{CustomerID: "cus_1", Status: "canceled", PlanTier: models.PlanTierSite, EventSeq: 3})
	require.NoError(t, err)
	assert.Equal(t, Stale, outcome)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)

	stored, err := repo.GetByCustomer(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, stored.Status)
	assert.Equal(t, int64(5), stored.LastEventSeq)
	assert.Equal(t, int64(1), stored.Version)
}

func TestApplyEqualSeqIsStale(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.Apply(ctx, Transition{CustomerID: "cus_1", Status: "active", PlanTier: models.PlanTierCrew, EventSeq: 4})
	require.NoError(t, err)

	outcome, _, err := svc.Apply(ctx, Transition{CustomerID: "cus_1", Status: "past_due", PlanTier: models.PlanTierCrew, EventSeq: 4})
	require.NoError(t, err)
	assert.Equal(t, Stale, outcome)
}

func TestApplyNormalizesUnknownStatus(t *testing.T) {
	svc, _ := newTestService()

	_, sub, err := svc.Apply(context.Background(), Transition{CustomerID: "cus_1", Status: "Something_Else", PlanTier: models.PlanTierStarter, EventSeq: 1})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusIncomplete, sub.Status)
}

func TestApplyConcurrent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(seq int64) {
			defer wg.Done()
			// Redeliver on a lost bounded retry, as the webhook provider would.
			for {
				_, _, err := svc.Apply(ctx, Transition{
					CustomerID: "cus_1",
					Status:     "active",
					PlanTier:   models.PlanTierCrew,
					EventSeq:   seq,
				})
				if err != ErrWriteConflict {
					return
				}
			}
		}(int64(i + 1))
	}
	wg.Wait()

	stored, err := repo.GetByCustomer(ctx, "cus_1")
	require.NoError(t, err)
	// Whatever the interleaving, the ledger ends at the highest applied seq
	// and never beyond one version bump per applied event.
	assert.Equal(t, int64(writers), stored.LastEventSeq)
	assert.LessOrEqual(t, stored.Version, int64(writers))
}

func TestApplyCreateRace(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Pre-create as if a concurrent writer won between read and insert.
	created, err := repo.CreateIfAbsent(ctx, &models.Subscription{
		CustomerID: "cus_1", Status: models.SubscriptionStatusTrialing, PlanTier: models.PlanTierStarter, LastEventSeq: 1, Version: 1,
	})
	require.NoError(t, err)
	require.True(t, created)

	outcome, sub, err := svc.Apply(ctx, Transition{CustomerID: "cus_1", Status: "active", PlanTier: models.PlanTierStarter, EventSeq: 2})
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, int64(2), sub.Version)
}
