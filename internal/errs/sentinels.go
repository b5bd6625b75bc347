// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller does not own the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates malformed input (empty title, bad priority, ...).
	ErrValidation = errors.New("validation")

	// ErrInvalidCredentials indicates a wrong email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWeakPassword indicates a password rejected at signup.
	ErrWeakPassword = errors.New("weak password")

	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email")
)

// Provider messages, as reported by the identity service.
const (
	MsgInvalidCredentials = "Invalid login credentials"
	MsgAlreadyRegistered  = "User already registered"
	MsgWeakPassword       = "Signup requires a valid password"
	MsgInvalidEmail       = "Unable to validate email address: invalid format"
	MsgRateLimited        = "Too many login attempts"
)

// ProviderMessage returns the identity service message for err, or "" when err is not
// an identity error.
func ProviderMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrAlreadyExists):
		return MsgAlreadyRegistered
	case errors.Is(err, ErrWeakPassword):
		return MsgWeakPassword
	case errors.Is(err, ErrInvalidEmail):
		return MsgInvalidEmail
	case errors.Is(err, ErrRateLimited):
		return MsgRateLimited
	}
	return ""
}
