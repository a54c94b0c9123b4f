package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/config"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/entitlements"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/ledger"
)

// Code classifies an accepted delivery. All of them answer 2xx to the
// provider; only Applied changed any state.
type Code int

const (
	Applied Code = iota
	Duplicate
	Stale
	Ignored
)

func (c Code) String() string {
	switch c {
	case Applied:
		return "applied"
	case Duplicate:
		return "duplicate"
	case Stale:
		return "stale"
	default:
		return "ignored"
	}
}

// Result reports what ingestion did with a delivery.
type Result struct {
	Code       Code
	EventID    string
	CustomerID string
}

// Ingestor turns at-least-once, possibly out-of-order billing deliveries
// into monotonic ledger updates. Signature and parse failures return errors
// (non-2xx, provider retries); duplicate and stale events are acknowledged
// without effect.
type Ingestor struct {
	ledger *ledger.Service
	events EventRepository
	gate   *entitlements.Gate
	cfg    *config.Config
	log    *zap.Logger
}

// NewIngestor wires the webhook ingestion pipeline.
func NewIngestor(l *ledger.Service, events EventRepository, gate *entitlements.Gate, cfg *config.Config, log *zap.Logger) *Ingestor {
	return &Ingestor{ledger: l, events: events, gate: gate, cfg: cfg, log: log}
}

// NewIngestorFromDB wires the pipeline from a GORM DB handle.
func NewIngestorFromDB(db *gorm.DB, gate *entitlements.Gate, cfg *config.Config, log *zap.Logger) *Ingestor {
	return NewIngestor(ledger.NewServiceFromDB(db, log), NewEventRepository(db), gate, cfg, log)
}

// Ingest processes one delivery. rawBody must be the exact bytes the
// provider signed.
func (i *Ingestor) Ingest(ctx context.Context, rawBody []byte, signatureHeader string) (Result, error) {
	if !VerifySignature(rawBody, signatureHeader, i.cfg.WebhookSecret) {
		i.log.Warn("webhook signature rejected")
		return Result{}, ErrSignatureInvalid
	}

	env, err := ParseEnvelope(rawBody)
	if err != nil {
		i.log.Warn("webhook payload rejected", zap.Error(err))
		return Result{}, err
	}

	seen, err := i.events.Exists(ctx, env.EventID)
	if err != nil {
		return Result{}, err
	}
	if seen {
		i.log.Info("webhook replay acknowledged", zap.String("event_id", env.EventID))
		return Result{Code: Duplicate, EventID: env.EventID}, nil
	}

	transition, ok := i.mapTransition(env)
	if !ok {
		if err := i.record(ctx, env, Ignored); err != nil {
			return Result{}, err
		}
		return Result{Code: Ignored, EventID: env.EventID}, nil
	}

	outcome, _, err := i.ledger.Apply(ctx, transition)
	if err != nil {
		return Result{}, err
	}

	code := Stale
	if outcome == ledger.Applied {
		code = Applied
	}
	if err := i.record(ctx, env, code); err != nil {
		return Result{}, err
	}

	if code == Applied {
		if err := i.gate.Invalidate(ctx, transition.CustomerID); err != nil {
			// The cache TTL still bounds staleness.
			i.log.Warn("admission cache invalidation failed",
				zap.String("customer_id", transition.CustomerID),
				zap.Error(err),
			)
		}
	}

	i.log.Info("webhook processed",
		zap.String("event_id", env.EventID),
		zap.String("type", env.Type),
		zap.String("outcome", code.String()),
	)
	return Result{Code: code, EventID: env.EventID, CustomerID: transition.CustomerID}, nil
}

func (i *Ingestor) mapTransition(env *Envelope) (ledger.Transition, bool) {
	t := ledger.Transition{
		CustomerID:             env.Data.CustomerID,
		Status:                 env.Data.Status,
		PlanTier:               env.Data.PlanTier,
		CurrentPeriodEnd:       env.Data.CurrentPeriodEnd,
		ExternalSubscriptionID: env.Data.SubscriptionID,
		EventSeq:               env.Sequence,
	}
	if t.CustomerID == "" {
		return ledger.Transition{}, false
	}

	switch env.Type {
	case EventCheckoutCompleted, EventSubscriptionUpdated:
		return t, true
	case EventSubscriptionCanceled:
		t.Status = models.SubscriptionStatusCanceled
		return t, true
	default:
		return ledger.Transition{}, false
	}
}

func (i *Ingestor) record(ctx context.Context, env *Envelope, code Code) error {
	summary := fmt.Sprintf("%s|%s|%d|%s", env.Type, env.Data.CustomerID, env.Sequence, code)
	sum := sha256.Sum256([]byte(summary))

	_, err := i.events.RecordIfAbsent(ctx, &models.WebhookEvent{
		EventID:     env.EventID,
		EventType:   env.Type,
		OutcomeHash: hex.EncodeToString(sum[:]),
		ProcessedAt: time.Now().UTC(),
	})
	return err
}
