package models

import "time"

// Session token types. The type discriminates the payload shape and a token
// may only be redeemed by a caller asserting the same type.
const (
	TokenTypePasswordReset = "password-reset"
	TokenTypeEmailVerify   = "email-verify"
	TokenTypeOAuthLink     = "oauth-link"
	TokenTypeInvite        = "invite"
)

// SessionToken is a single-use, typed, optionally expiring secret. Rows are
// never reissued and never flip back to unused; expired rows are swept by a
// background job after a retention window.
type SessionToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Token     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Type      string     `gorm:"type:varchar(32);not null;index" json:"type"`
	DataJSON  string     `gorm:"type:text;not null" json:"-"`
	ExpiresAt *time.Time `gorm:"type:timestamp;default:null;index" json:"expires_at,omitempty"`
	Used      bool       `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
