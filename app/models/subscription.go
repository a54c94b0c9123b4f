package models

import "time"

const (
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusActive     = "active"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusIncomplete = "incomplete"
)

// Plan tiers offered to construction companies.
const (
	PlanTierStarter = "starter"
	PlanTierCrew    = "crew"
	PlanTierSite    = "site"
)

// Subscription is the ledger entry holding the local truth about a customer's
// billing state. It is created on the first checkout event and from then on
// mutated only by webhook ingestion, never by request-path code.
//
// Version is a local write counter that only increases; LastEventSeq is the
// provider-assigned ordering token of the newest applied event and gates out
// stale redeliveries.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	CustomerID             string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"customer_id"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'incomplete';index" json:"status"`
	PlanTier               string     `gorm:"type:varchar(50);not null;default:'starter'" json:"plan_tier"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	ExternalSubscriptionID string     `gorm:"type:varchar(191);not null;index" json:"external_subscription_id"`
	LastEventSeq           int64      `gorm:"not null;default:0" json:"last_event_seq"`
	Version                int64      `gorm:"not null;default:0" json:"version"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
