package auth

import (
	"errors"
	"fmt"

	"github.com/geocoder89/taskhub/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountDisabled    = errors.New("inactive user account")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrExpiredToken       = errors.New("token expired")
	ErrMalformedToken     = errors.New("malformed token")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrDuplicateUser      = errors.New("duplicate user")
)

const (
	FieldEmail    = "email"
	FieldUsername = "username"
)

// DuplicateUserError names the unique field that collided.
type DuplicateUserError struct {
	Field string
}

func (e *DuplicateUserError) Error() string {
	switch e.Field {
	case FieldEmail:
		return "Email already registered"
	case FieldUsername:
		return "Username already taken"
	default:
		return fmt.Sprintf("%s already in use", e.Field)
	}
}

func (e *DuplicateUserError) Is(target error) bool {
	return target == ErrDuplicateUser
}

// ValidationError carries every failing field of a request, not only the first.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	f := e.Fields[0]
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (and %d more)", f.Field, f.Message, len(e.Fields)-1)
}

// Kind returns a stable machine-readable code for err, used in error bodies and metrics.
func Kind(err error) string {
	var ve *ValidationError

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "validation_error"
	case errors.Is(err, ErrDuplicateUser):
		return "duplicate_user"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	default:
		return "internal"
	}
}
