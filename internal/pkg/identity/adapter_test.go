package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/config"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/token"
)

type memoryTokenRepo struct {
	mu   sync.Mutex
	rows map[string]*models.SessionToken
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{rows: make(map[string]*models.SessionToken)}
}

func (r *memoryTokenRepo) Insert(_ context.Context, row *models.SessionToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *row
	r.rows[row.Token] = &copied
	return nil
}

func (r *memoryTokenRepo) FindByToken(_ context.Context, secret string) (*models.SessionToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[secret]
	if !ok {
		return nil, token.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *memoryTokenRepo) MarkUsed(_ context.Context, secret string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[secret]
	if !ok || row.Used {
		return false, nil
	}
	if row.ExpiresAt != nil && !row.ExpiresAt.After(now) {
		return false, nil
	}
	row.Used = true
	return true, nil
}

func (r *memoryTokenRepo) DeleteExpiredBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type memoryIdentityRepo struct {
	mu       sync.Mutex
	accounts map[string]*models.ProviderAccount
	users    map[uint]*models.User
}

func newMemoryIdentityRepo() *memoryIdentityRepo {
	return &memoryIdentityRepo{
		accounts: make(map[string]*models.ProviderAccount),
		users:    make(map[uint]*models.User),
	}
}

func (r *memoryIdentityRepo) FindProviderAccount(_ context.Context, provider, providerUserID string) (*models.ProviderAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[provider+"/"+providerUserID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *memoryIdentityRepo) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryIdentityRepo) CreateProviderAccount(_ context.Context, account *models.ProviderAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *account
	r.accounts[account.Provider+"/"+account.ProviderUserID] = &copied
	return nil
}

func newTestAdapter() (*Adapter, *memoryIdentityRepo) {
	cfg := &config.Config{OAuthLinkTTL: 15 * time.Minute}
	log := zap.NewNop()
	repo := newMemoryIdentityRepo()
	tokens := token.NewStore(newMemoryTokenRepo(), cfg, log)
	return NewAdapter(repo, tokens, log), repo
}

func googleClaims(subject, email string) goth.User {
	return goth.User{Provider: "google", UserID: subject, Email: email, Name: "Pat Mason"}
}

func TestResolveLinkedAccount(t *testing.T) {
	adapter, repo := newTestAdapter()
	ctx := context.Background()

	user := &models.User{Email: "pat@example.com", CustomerID: "cus_abc"}
	user.ID = 7
	repo.users[7] = user
	require.NoError(t, repo.CreateProviderAccount(ctx, &models.ProviderAccount{
		UserID: 7, Provider: "google", ProviderUserID: "sub-123",
	}))

	result, err := adapter.Resolve(ctx, googleClaims("sub-123", "pat@example.com"))
	require.NoError(t, err)
	require.NotNil(t, result.Identity)
	assert.Empty(t, result.PendingLinkToken)
	assert.Equal(t, uint(7), result.Identity.UserID)
	assert.Equal(t, "cus_abc", result.Identity.CustomerID)
}

func TestResolveUnlinkedIssuesPendingToken(t *testing.T) {
	adapter, _ := newTestAdapter()

	result, err := adapter.Resolve(context.Background(), googleClaims("sub-999", "new@example.com"))
	require.NoError(t, err)
	assert.Nil(t, result.Identity)
	assert.NotEmpty(t, result.PendingLinkToken)
}

func TestResolveIncompleteClaims(t *testing.T) {
	adapter, _ := newTestAdapter()

	_, err := adapter.Resolve(context.Background(), goth.User{Provider: "google"})
	assert.ErrorIs(t, err, ErrIncompleteClaims)

	_, err = adapter.Resolve(context.Background(), goth.User{UserID: "sub-1"})
	assert.ErrorIs(t, err, ErrIncompleteClaims)
}

func TestCompleteLink(t *testing.T) {
	adapter, repo := newTestAdapter()
	ctx := context.Background()

	user := &models.User{Email: "pat@example.com", CustomerID: "cus_abc"}
	user.ID = 7
	repo.users[7] = user

	result, err := adapter.Resolve(ctx, googleClaims("sub-123", "pat@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, result.PendingLinkToken)
	pending := result.PendingLinkToken

	identity, err := adapter.CompleteLink(ctx, pending, 7)
	require.NoError(t, err)
	assert.Equal(t, "cus_abc", identity.CustomerID)

	// The provider account is attached; the next exchange resolves directly.
	result, err = adapter.Resolve(ctx, googleClaims("sub-123", "pat@example.com"))
	require.NoError(t, err)
	require.NotNil(t, result.Identity)
	assert.Equal(t, uint(7), result.Identity.UserID)

	// The pending token was single use.
	_, err = adapter.CompleteLink(ctx, pending, 7)
	assert.ErrorIs(t, err, token.ErrAlreadyUsed)
}
