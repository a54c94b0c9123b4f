package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks the HMAC-SHA256 of the exact raw body against the
// signature header. Any upstream transformation of the body breaks this, so
// callers must pass the unparsed bytes. Comparison is constant time.
func VerifySignature(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	sig = strings.TrimPrefix(sig, "sha256=")
	if sig == "" || strings.TrimSpace(secret) == "" {
		return false
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decoded)
}

// SignPayload computes the hex signature for a payload. Exported for tests
// and local tooling that simulates provider deliveries.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
