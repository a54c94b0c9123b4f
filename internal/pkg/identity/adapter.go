package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/markbates/goth"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildsuitehq/BuildSuite/app/models"
	"github.com/buildsuitehq/BuildSuite/internal/pkg/token"
)

var ErrIncompleteClaims = errors.New("provider claims missing subject id")

// Identity is the normalized local account an OAuth exchange resolved to.
type Identity struct {
	UserID     uint
	CustomerID string
	Email      string
}

// Result is either a resolved identity or a pending-link token created for
// the follow-up linking step, never both.
type Result struct {
	Identity         *Identity
	PendingLinkToken string
}

// Repository provides the account lookups the adapter needs.
type Repository interface {
	FindProviderAccount(ctx context.Context, provider, providerUserID string) (*models.ProviderAccount, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateProviderAccount(ctx context.Context, account *models.ProviderAccount) error
}

// Adapter normalizes exchanged provider claims into a local identity.
// Protocol mechanics (redirects, PKCE, refresh) live in the OAuth layer; the
// only contract here is claims in, identity or pending-link token out.
type Adapter struct {
	repo   Repository
	tokens *token.Store
	log    *zap.Logger
}

// NewAdapter creates an identity adapter.
func NewAdapter(repo Repository, tokens *token.Store, log *zap.Logger) *Adapter {
	return &Adapter{repo: repo, tokens: tokens, log: log}
}

// NewAdapterFromDB creates an identity adapter from a GORM DB handle.
func NewAdapterFromDB(db *gorm.DB, tokens *token.Store, log *zap.Logger) *Adapter {
	return NewAdapter(NewRepository(db), tokens, log)
}

// Resolve maps exchanged claims to an existing linked account, or issues an
// oauth-link session token carrying the claims for the pending-link step.
func (a *Adapter) Resolve(ctx context.Context, claims goth.User) (*Result, error) {
	provider := strings.ToLower(strings.TrimSpace(claims.Provider))
	subject := strings.TrimSpace(claims.UserID)
	if provider == "" || subject == "" {
		return nil, ErrIncompleteClaims
	}

	account, err := a.repo.FindProviderAccount(ctx, provider, subject)
	if err == nil {
		user, err := a.repo.FindUserByID(ctx, account.UserID)
		if err != nil {
			return nil, err
		}
		return &Result{Identity: &Identity{
			UserID:     user.ID,
			CustomerID: user.CustomerID,
			Email:      user.Email,
		}}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	secret, err := a.tokens.Issue(ctx, token.OAuthLinkPayload{
		Provider:       provider,
		ProviderUserID: subject,
		Email:          strings.TrimSpace(claims.Email),
		Name:           strings.TrimSpace(claims.Name),
	}, -1)
	if err != nil {
		return nil, err
	}

	a.log.Info("pending oauth link issued", zap.String("provider", provider))
	return &Result{PendingLinkToken: secret}, nil
}

// CompleteLink redeems a pending-link token and attaches the provider
// identity to the given user.
func (a *Adapter) CompleteLink(ctx context.Context, secret string, userID uint) (*Identity, error) {
	payload, err := a.tokens.Redeem(ctx, secret, models.TokenTypeOAuthLink)
	if err != nil {
		return nil, err
	}
	link := payload.(*token.OAuthLinkPayload)

	if err := a.repo.CreateProviderAccount(ctx, &models.ProviderAccount{
		UserID:         userID,
		Provider:       link.Provider,
		ProviderUserID: link.ProviderUserID,
		Email:          link.Email,
	}); err != nil {
		return nil, err
	}

	user, err := a.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, CustomerID: user.CustomerID, Email: user.Email}, nil
}
