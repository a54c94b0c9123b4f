package config

import (
	"strconv"
	"time"

	"github.com/buildsuitehq/BuildSuite/internal/pkg/env"
)

// Config carries the tunables of the session and entitlement gateway. It is
// built once at process start and passed into the components; core packages
// never read environment variables themselves.
type Config struct {
	// WebhookSecret signs billing provider webhook payloads (HMAC-SHA256).
	WebhookSecret string

	// Default TTL per session token type. A zero TTL means the token has no
	// expiry and stays valid until redeemed once.
	PasswordResetTTL time.Duration
	EmailVerifyTTL   time.Duration
	OAuthLinkTTL     time.Duration
	InviteTTL        time.Duration

	// TokenRetention is how long expired/used token rows are kept before the
	// background sweep removes them.
	TokenRetention time.Duration

	// AdmissionCacheTTL bounds staleness of entitlement decisions after an
	// externally driven subscription change.
	AdmissionCacheTTL time.Duration

	// PastDueGrace is the window after current_period_end during which a
	// past_due customer gets degraded instead of denied access.
	PastDueGrace time.Duration

	// StorageTimeout bounds every external storage round trip.
	StorageTimeout time.Duration
}

// Load builds the configuration from environment variables with production
// defaults.
func Load() *Config {
	return &Config{
		WebhookSecret:     env.GetEnv("BILLING_WEBHOOK_SECRET", ""),
		PasswordResetTTL:  durationEnv("TOKEN_TTL_PASSWORD_RESET", time.Hour),
		EmailVerifyTTL:    durationEnv("TOKEN_TTL_EMAIL_VERIFY", 24*time.Hour),
		OAuthLinkTTL:      durationEnv("TOKEN_TTL_OAUTH_LINK", 15*time.Minute),
		InviteTTL:         durationEnv("TOKEN_TTL_INVITE", 0),
		TokenRetention:    durationEnv("TOKEN_RETENTION", 30*24*time.Hour),
		AdmissionCacheTTL: durationEnv("ADMISSION_CACHE_TTL", 30*time.Second),
		PastDueGrace:      durationEnv("PAST_DUE_GRACE", 72*time.Hour),
		StorageTimeout:    durationEnv("STORAGE_TIMEOUT", 10*time.Second),
	}
}

// TokenTTL resolves the configured default TTL for a session token type.
func (c *Config) TokenTTL(tokenType string) time.Duration {
	switch tokenType {
	case "password-reset":
		return c.PasswordResetTTL
	case "email-verify":
		return c.EmailVerifyTTL
	case "oauth-link":
		return c.OAuthLinkTTL
	case "invite":
		return c.InviteTTL
	default:
		return time.Hour
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := env.GetEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// Plain integers are treated as seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
