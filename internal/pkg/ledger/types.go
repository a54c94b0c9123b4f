package ledger

import (
	"errors"
	"time"
)

var (
	// ErrNotFound means no ledger entry exists for the customer.
	ErrNotFound = errors.New("subscription not found")
	// ErrWriteConflict surfaces after the bounded retry on a lost
	// version-gated write.
	ErrWriteConflict = errors.New("subscription write conflict")
)

// Transition is the target state a billing event maps to. EventSeq is the
// event's intrinsic ordering token; a transition whose EventSeq does not
// advance past the stored row is discarded as stale.
type Transition struct {
	CustomerID             string
	Status                 string
	PlanTier               string
	CurrentPeriodEnd       *time.Time
	ExternalSubscriptionID string
	EventSeq               int64
}

// Outcome reports what Apply did with a transition.
type Outcome int

const (
	// Applied means the ledger row was created or advanced.
	Applied Outcome = iota
	// Stale means the transition carried an older ordering token than the
	// stored row; it is acknowledged but has no effect.
	Stale
)
