package webhook

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Billing event types the ingestor maps to ledger transitions. Anything else
// is acknowledged and ignored.
const (
	EventCheckoutCompleted    = "checkout.completed"
	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.canceled"
)

var (
	ErrSignatureInvalid  = errors.New("webhook signature invalid")
	ErrMalformedPayload  = errors.New("webhook payload malformed")
	ErrMissingOrderField = errors.New("webhook event missing sequence")
)

// Envelope is the provider's event wrapper. Sequence is the event-intrinsic
// ordering token used to gate out out-of-order redeliveries.
type Envelope struct {
	EventID  string       `json:"id"`
	Type     string       `json:"type"`
	Sequence int64        `json:"sequence"`
	Data     EnvelopeData `json:"data"`
}

// EnvelopeData is the subscription object carried by billing events.
type EnvelopeData struct {
	CustomerID       string     `json:"customer_id"`
	SubscriptionID   string     `json:"subscription_id"`
	Status           string     `json:"status"`
	PlanTier         string     `json:"plan_tier"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
}

// ParseEnvelope decodes and sanity-checks an event body.
func ParseEnvelope(rawBody []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, ErrMalformedPayload
	}
	if strings.TrimSpace(env.EventID) == "" || strings.TrimSpace(env.Type) == "" {
		return nil, ErrMalformedPayload
	}
	if env.Sequence <= 0 {
		return nil, ErrMissingOrderField
	}
	return &env, nil
}
