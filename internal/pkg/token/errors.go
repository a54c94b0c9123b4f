package token

import "errors"

// Redemption failure kinds. Callers can distinguish them with errors.Is, but
// security-sensitive flows must collapse them into one wire-facing message so
// the response shape leaks nothing about why a token was rejected.
var (
	ErrNotFound     = errors.New("token not found")
	ErrExpired      = errors.New("token expired")
	ErrAlreadyUsed  = errors.New("token already used")
	ErrTypeMismatch = errors.New("token type mismatch")
)
