package token

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/buildsuitehq/BuildSuite/app/models"
)

// Payload is the typed data carried by a session token. Each token type has
// exactly one payload variant; the variant is validated when the token is
// issued and again when it is decoded on redemption.
type Payload interface {
	TokenType() string
}

// PasswordResetPayload authorizes a password change for the target user.
type PasswordResetPayload struct {
	UserID uint `json:"user_id" validate:"required"`
}

func (PasswordResetPayload) TokenType() string { return models.TokenTypePasswordReset }

// EmailVerifyPayload confirms ownership of an email address.
type EmailVerifyPayload struct {
	UserID uint   `json:"user_id" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
}

func (EmailVerifyPayload) TokenType() string { return models.TokenTypeEmailVerify }

// OAuthLinkPayload carries normalized provider claims through a pending
// account-linking step.
type OAuthLinkPayload struct {
	Provider       string `json:"provider" validate:"required"`
	ProviderUserID string `json:"provider_user_id" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	Name           string `json:"name"`
}

func (OAuthLinkPayload) TokenType() string { return models.TokenTypeOAuthLink }

// InvitePayload invites an email address onto an account. Invites carry no
// expiry by default.
type InvitePayload struct {
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"oneof=user admin"`
	InvitedBy uint   `json:"invited_by" validate:"required"`
}

func (InvitePayload) TokenType() string { return models.TokenTypeInvite }

var validate = validator.New()

func encodePayload(p Payload) (string, error) {
	if err := validate.Struct(p); err != nil {
		return "", err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodePayload(tokenType, dataJSON string) (Payload, error) {
	var p Payload
	switch tokenType {
	case models.TokenTypePasswordReset:
		p = &PasswordResetPayload{}
	case models.TokenTypeEmailVerify:
		p = &EmailVerifyPayload{}
	case models.TokenTypeOAuthLink:
		p = &OAuthLinkPayload{}
	case models.TokenTypeInvite:
		p = &InvitePayload{}
	default:
		return nil, fmt.Errorf("unknown token type %q", tokenType)
	}
	if err := json.Unmarshal([]byte(dataJSON), p); err != nil {
		return nil, err
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	return p, nil
}
