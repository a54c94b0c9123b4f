package entitlements

import (
	"time"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

// Verdict is the admission decision for a request.
type Verdict string

const (
	Allow   Verdict = "allow"
	Degrade Verdict = "degrade"
	Deny    Verdict = "deny"
)

// Decision is derived, never persisted.
type Decision struct {
	Verdict Verdict
	Reason  string
}

// Snapshot is the slice of ledger state the policy needs. Missing marks a
// customer with no ledger entry, cached to avoid repeated lookups.
type Snapshot struct {
	Missing          bool       `json:"missing,omitempty"`
	Status           string     `json:"status,omitempty"`
	PlanTier         string     `json:"plan_tier,omitempty"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

// Decide maps subscription state to an admission verdict. Pure function of
// (status, currentPeriodEnd, now, grace).
func Decide(snap Snapshot, now time.Time, grace time.Duration) Decision {
	if snap.Missing {
		return Decision{Verdict: Deny, Reason: "no subscription"}
	}

	switch snap.Status {
	case models.SubscriptionStatusActive:
		return Decision{Verdict: Allow}
	case models.SubscriptionStatusTrialing:
		if snap.CurrentPeriodEnd == nil || now.Before(*snap.CurrentPeriodEnd) {
			return Decision{Verdict: Allow}
		}
		return Decision{Verdict: Deny, Reason: "trial ended"}
	case models.SubscriptionStatusPastDue:
		// Degraded access bounds the blast radius of a transient payment
		// failure without an abrupt lockout.
		if snap.CurrentPeriodEnd != nil && !now.After(snap.CurrentPeriodEnd.Add(grace)) {
			return Decision{Verdict: Degrade, Reason: "payment past due"}
		}
		return Decision{Verdict: Deny, Reason: "payment past due, grace elapsed"}
	case models.SubscriptionStatusCanceled:
		return Decision{Verdict: Deny, Reason: "subscription canceled"}
	default:
		return Decision{Verdict: Deny, Reason: "subscription incomplete"}
	}
}
