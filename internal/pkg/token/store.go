package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/config"
)

const tokenBytes = 32

// Store issues and redeems single-use typed session tokens. Redemption is
// exactly-once: under N concurrent attempts on the same token, one caller
// gets the payload and the rest get ErrAlreadyUsed.
type Store struct {
	repo Repository
	cfg  *config.Config
	log  *zap.Logger
	now  func() time.Time
}

// NewStore creates a token store from an injected repository.
func NewStore(repo Repository, cfg *config.Config, log *zap.Logger) *Store {
	return &Store{repo: repo, cfg: cfg, log: log, now: time.Now}
}

// NewStoreFromDB creates a token store from a GORM DB handle.
func NewStoreFromDB(db *gorm.DB, cfg *config.Config, log *zap.Logger) *Store {
	return NewStore(NewRepository(db), cfg, log)
}

// Issue persists a new token row for the payload's type and returns the
// secret. A negative ttl selects the configured default for the type; a zero
// ttl issues without expiry.
func (s *Store) Issue(ctx context.Context, payload Payload, ttl time.Duration) (string, error) {
	dataJSON, err := encodePayload(payload)
	if err != nil {
		return "", err
	}

	secret, err := generateToken()
	if err != nil {
		return "", err
	}

	if ttl < 0 {
		ttl = s.cfg.TokenTTL(payload.TokenType())
	}
	var expiresAt *time.Time
	if ttl > 0 {
		t := s.now().Add(ttl)
		expiresAt = &t
	}

	row := &models.SessionToken{
		Token:     secret,
		Type:      payload.TokenType(),
		DataJSON:  dataJSON,
		ExpiresAt: expiresAt,
		Used:      false,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return "", err
	}

	s.log.Info("session token issued",
		zap.String("type", payload.TokenType()),
		zap.Duration("ttl", ttl),
	)
	return secret, nil
}

// Redeem consumes a token. The used flip and the eligibility check run as a
// single conditional write, so a concurrent redeemer that loses the race
// observes ErrAlreadyUsed even when its initial read looked valid.
func (s *Store) Redeem(ctx context.Context, secret, expectedType string) (Payload, error) {
	row, err := s.repo.FindByToken(ctx, secret)
	if err != nil {
		s.logRedeemFailure(expectedType, err)
		return nil, err
	}

	if row.Type != expectedType {
		s.logRedeemFailure(expectedType, ErrTypeMismatch)
		return nil, ErrTypeMismatch
	}
	now := s.now()
	if row.ExpiresAt != nil && !row.ExpiresAt.After(now) {
		s.logRedeemFailure(expectedType, ErrExpired)
		return nil, ErrExpired
	}
	if row.Used {
		s.logRedeemFailure(expectedType, ErrAlreadyUsed)
		return nil, ErrAlreadyUsed
	}

	won, err := s.repo.MarkUsed(ctx, secret, now)
	if err != nil {
		return nil, err
	}
	if !won {
		// Someone else redeemed (or the token expired) between the read and
		// the conditional write.
		s.logRedeemFailure(expectedType, ErrAlreadyUsed)
		return nil, ErrAlreadyUsed
	}

	payload, err := decodePayload(row.Type, row.DataJSON)
	if err != nil {
		return nil, err
	}

	s.log.Info("session token redeemed", zap.String("type", expectedType))
	return payload, nil
}

// Sweep deletes rows whose expiry lies further back than the retention
// window. Purely storage hygiene; correctness never depends on it.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.TokenRetention)
	deleted, err := s.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("session token sweep", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

func (s *Store) logRedeemFailure(expectedType string, reason error) {
	// The wire response stays uniform; only the log keeps the real reason.
	s.log.Warn("session token redemption failed",
		zap.String("expected_type", expectedType),
		zap.String("reason", reason.Error()),
	)
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
