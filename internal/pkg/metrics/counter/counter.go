package counter

import (
	"context"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/cache"
)

const (
	webhookOutcomesKey   = "gateway:counters:webhook_outcomes"
	admissionVerdictsKey = "gateway:counters:admission_verdicts"
	tokenRedemptionsKey  = "gateway:counters:token_redemptions"
)

// AddWebhookOutcome increments the counter for a webhook ingestion outcome
// (applied, duplicate, stale, ignored).
func AddWebhookOutcome(outcome string) error {
	return cache.GetClient().HIncrBy(context.Background(), webhookOutcomesKey, outcome, 1).Err()
}

// AddAdmissionVerdict increments the counter for an admission verdict
// (allow, degrade, deny).
func AddAdmissionVerdict(verdict string) error {
	return cache.GetClient().HIncrBy(context.Background(), admissionVerdictsKey, verdict, 1).Err()
}

// AddTokenRedemption increments the redemption counter for a token type.
func AddTokenRedemption(tokenType string) error {
	return cache.GetClient().HIncrBy(context.Background(), tokenRedemptionsKey, tokenType, 1).Err()
}

// Snapshot reads all counter hashes for the ops endpoint.
func Snapshot(ctx context.Context) (map[string]map[string]string, error) {
	rdb := cache.GetClient()
	out := make(map[string]map[string]string, 3)
	for name, key := range map[string]string{
		"webhook_outcomes":   webhookOutcomesKey,
		"admission_verdicts": admissionVerdictsKey,
		"token_redemptions":  tokenRedemptionsKey,
	} {
		data, err := rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		out[name] = data
	}
	return out, nil
}
