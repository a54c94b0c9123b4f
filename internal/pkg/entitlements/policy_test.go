package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

func TestDecide(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	grace := 72 * time.Hour
	ptr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name string
		snap Snapshot
		want Verdict
	}{
		{
			"no ledger entry",
			Snapshot{Missing: true},
			Deny,
		},
		{
			"active",
			Snapshot{Status: models.SubscriptionStatusActive, PlanTier: models.PlanTierCrew},
			Allow,
		},
		{
			"active past period end still allows",
			Snapshot{Status: models.SubscriptionStatusActive, CurrentPeriodEnd: ptr(now.Add(-time.Hour))},
			Allow,
		},
		{
			"trialing before period end",
			Snapshot{Status: models.SubscriptionStatusTrialing, CurrentPeriodEnd: ptr(now.Add(24 * time.Hour))},
			Allow,
		},
		{
			"trialing without period end",
			Snapshot{Status: models.SubscriptionStatusTrialing},
			Allow,
		},
		{
			"trial ended",
			Snapshot{Status: models.SubscriptionStatusTrialing, CurrentPeriodEnd: ptr(now.Add(-time.Minute))},
			Deny,
		},
		{
			"past due inside grace",
			Snapshot{Status: models.SubscriptionStatusPastDue, CurrentPeriodEnd: ptr(now.Add(-48 * time.Hour))},
			Degrade,
		},
		{
			"past due at grace boundary",
			Snapshot{Status: models.SubscriptionStatusPastDue, CurrentPeriodEnd: ptr(now.Add(-grace))},
			Degrade,
		},
		{
			"past due after grace",
			Snapshot{Status: models.SubscriptionStatusPastDue, CurrentPeriodEnd: ptr(now.Add(-grace - time.Second))},
			Deny,
		},
		{
			"past due without period end",
			Snapshot{Status: models.SubscriptionStatusPastDue},
			Deny,
		},
		{
			"canceled",
			Snapshot{Status: models.SubscriptionStatusCanceled},
			Deny,
		},
		{
			"incomplete",
			Snapshot{Status: models.SubscriptionStatusIncomplete},
			Deny,
		},
		{
			"unknown status",
			Snapshot{Status: "weird"},
			Deny,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.snap, now, grace)
			assert.Equal(t, tt.want, got.Verdict)
			if tt.want != Allow {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}
