package ledger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

// applyAttempts bounds the re-read-and-retry loop on a lost versioned write.
const applyAttempts = 2

// Service holds the versioned billing-state truth for each customer. Rows
// are only ever written through Apply; the request path reads them through
// the admission gate.
type Service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, log *zap.Logger) *Service {
	return NewService(NewRepository(db), log)
}

// GetByCustomer reads the current ledger entry.
func (s *Service) GetByCustomer(ctx context.Context, customerID string) (*models.Subscription, error) {
	return s.repo.GetByCustomer(ctx, customerID)
}

// Apply advances the ledger to the transition's state. The write succeeds
// only if the event's ordering token is newer than the stored row; otherwise
// the transition is reported Stale and dropped. A lost version-gated write is
// retried once with a fresh read; losing is fine because the authority is
// the provider's event stream, not local write order.
func (s *Service) Apply(ctx context.Context, t Transition) (Outcome, *models.Subscription, error) {
	t.Status = normalizeStatus(t.Status)

	for attempt := 0; attempt < applyAttempts; attempt++ {
		current, err := s.repo.GetByCustomer(ctx, t.CustomerID)
		if err == ErrNotFound {
			sub := &models.Subscription{
				CustomerID:             t.CustomerID,
				Status:                 t.Status,
				PlanTier:               t.PlanTier,
				CurrentPeriodEnd:       t.CurrentPeriodEnd,
				ExternalSubscriptionID: t.ExternalSubscriptionID,
				LastEventSeq:           t.EventSeq,
				Version:                1,
			}
			created, err := s.repo.CreateIfAbsent(ctx, sub)
			if err != nil {
				return Stale, nil, err
			}
			if created {
				s.log.Info("subscription created",
					zap.String("customer_id", t.CustomerID),
					zap.String("status", t.Status),
					zap.Int64("event_seq", t.EventSeq),
				)
				return Applied, sub, nil
			}
			// Lost the create race; re-read and go through the update path.
			continue
		}
		if err != nil {
			return Stale, nil, err
		}

		if t.EventSeq <= current.LastEventSeq {
			s.log.Info("stale subscription event discarded",
				zap.String("customer_id", t.CustomerID),
				zap.Int64("event_seq", t.EventSeq),
				zap.Int64("ledger_seq", current.LastEventSeq),
			)
			return Stale, current, nil
		}

		next := &models.Subscription{
			CustomerID:             t.CustomerID,
			Status:                 t.Status,
			PlanTier:               t.PlanTier,
			CurrentPeriodEnd:       t.CurrentPeriodEnd,
			ExternalSubscriptionID: t.ExternalSubscriptionID,
			LastEventSeq:           t.EventSeq,
			Version:                current.Version + 1,
		}
		won, err := s.repo.UpdateVersioned(ctx, next, current.Version)
		if err != nil {
			return Stale, nil, err
		}
		if won {
			s.log.Info("subscription advanced",
				zap.String("customer_id", t.CustomerID),
				zap.String("status", t.Status),
				zap.Int64("version", next.Version),
			)
			return Applied, next, nil
		}
		// A concurrent writer bumped the version; fresh read decides whether
		// our event is now stale.
	}

	return Stale, nil, ErrWriteConflict
}

func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubscriptionStatusTrialing:
		return models.SubscriptionStatusTrialing
	case models.SubscriptionStatusActive:
		return models.SubscriptionStatusActive
	case models.SubscriptionStatusPastDue:
		return models.SubscriptionStatusPastDue
	case models.SubscriptionStatusCanceled:
		return models.SubscriptionStatusCanceled
	default:
		return models.SubscriptionStatusIncomplete
	}
}
