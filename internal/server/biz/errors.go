package biz

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupportedGrantType is returned when no login strategy is
	// registered for the requested grant type.
	ErrUnsupportedGrantType = errors.New("unsupported grant type")

	// ErrGrantTypeNotAllowed is returned when the client is configured but
	// does not allow the requested grant type.
	ErrGrantTypeNotAllowed = errors.New("grant type not allowed for client")

	// ErrUnknownClient is returned when a client registry is configured
	// and the login names a client id that is not in it.
	ErrUnknownClient = errors.New("unknown client")

	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantDisabled = errors.New("tenant disabled")
	ErrTenantExpired  = errors.New("tenant expired")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrUserDisabled       = errors.New("user disabled")
	ErrUserNotFound       = errors.New("user not found")

	ErrInternal = errors.New("server internal error, please try again later")
)

// RateLimitedError reports a locked principal. RetryAfter is the remaining
// lockout window for the caller to render.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry after %s", e.RetryAfter)
}

// CredentialsWrongError reports a failed credential check together with
// the attempts left before lockout.
type CredentialsWrongError struct {
	Remaining int
}

func (e *CredentialsWrongError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.Remaining)
}

func (e *CredentialsWrongError) Unwrap() error {
	return ErrInvalidCredentials
}
