package entitlements

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/cache"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/config"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/ledger"
)

const cacheKeyPrefix = "entitlement:"

// Gate decides on the request path whether a customer may proceed. It reads
// through a short-TTL cache into the ledger; webhook ingestion invalidates
// the cache entry after every applied update, so staleness is bounded by
// min(cache TTL, invalidation latency).
type Gate struct {
	cache  cache.Cache
	ledger *ledger.Service
	cfg    *config.Config
	log    *zap.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewGate wires the admission gate. The gate never writes the ledger.
func NewGate(c cache.Cache, l *ledger.Service, cfg *config.Config, log *zap.Logger) *Gate {
	return &Gate{cache: c, ledger: l, cfg: cfg, log: log, now: time.Now}
}

// CheckAccess resolves the customer's entitlement. A non-nil error means the
// backing store was unreachable and the caller should answer 5xx rather than
// deny.
func (g *Gate) CheckAccess(ctx context.Context, customerID string) (Decision, error) {
	if g.cfg.StorageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.StorageTimeout)
		defer cancel()
	}

	snap, err := g.snapshot(ctx, customerID)
	if err != nil {
		return Decision{}, err
	}
	return Decide(snap, g.now(), g.cfg.PastDueGrace), nil
}

// Invalidate drops the cached entry for a customer. Called by webhook
// ingestion right after an applied ledger update.
func (g *Gate) Invalidate(ctx context.Context, customerID string) error {
	return g.cache.Invalidate(ctx, cacheKeyPrefix+customerID)
}

func (g *Gate) snapshot(ctx context.Context, customerID string) (Snapshot, error) {
	key := cacheKeyPrefix + customerID

	if raw, err := g.cache.Get(ctx, key); err == nil {
		var snap Snapshot
		if jsonErr := json.Unmarshal([]byte(raw), &snap); jsonErr == nil {
			return snap, nil
		}
		// Unreadable entry; fall through to a fresh read.
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		g.log.Warn("entitlement cache read failed", zap.Error(err))
	}

	// Collapse concurrent misses for the same customer into one ledger read.
	// The populate context is detached from the caller: one canceled request
	// must not fail the collapsed reads of every waiting caller.
	v, err, _ := g.group.Do(customerID, func() (interface{}, error) {
		popCtx := context.Background()
		cancel := context.CancelFunc(func() {})
		if g.cfg.StorageTimeout > 0 {
			popCtx, cancel = context.WithTimeout(popCtx, g.cfg.StorageTimeout)
		}
		defer cancel()
		return g.populate(popCtx, key, customerID)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (g *Gate) populate(ctx context.Context, key, customerID string) (Snapshot, error) {
	var snap Snapshot
	sub, err := g.ledger.GetByCustomer(ctx, customerID)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		snap = Snapshot{Missing: true}
	case err != nil:
		return Snapshot{}, err
	default:
		snap = Snapshot{
			Status:           sub.Status,
			PlanTier:         sub.PlanTier,
			CurrentPeriodEnd: sub.CurrentPeriodEnd,
		}
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, err
	}
	if err := g.cache.Set(ctx, key, string(raw), g.cfg.AdmissionCacheTTL); err != nil {
		// A failed cache write only costs the next request a ledger read.
		g.log.Warn("entitlement cache write failed", zap.Error(err))
	}
	return snap, nil
}
