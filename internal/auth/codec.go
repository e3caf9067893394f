package auth

import (
	"fmt"
	"time"
)

const (
	FormatJWT    = "jwt"
	FormatPaseto = "paseto"

	DefaultAccessTTL = 30 * time.Minute

	tokenTypeAccess = "access"
)

// Config is everything the auth core needs from the process configuration.
type Config struct {
	Secret         []byte
	AccessTTL      time.Duration
	TokenFormat    string
	PasswordPolicy PasswordPolicy
}

// Claims is the verified content of an access token.
type Claims struct {
	Subject   string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec issues and verifies signed, expiring access tokens.
// Verify returns ErrExpiredToken, ErrInvalidSignature or ErrMalformedToken on failure.
type TokenCodec interface {
	Issue(subject string, ttl time.Duration) (string, error)
	Verify(token string) (Claims, error)
}

type CodecOption func(*codecOptions)

type codecOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(o *codecOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func buildCodecOptions(opts []CodecOption) codecOptions {
	o := codecOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewCodec picks the codec named by cfg.TokenFormat.
func NewCodec(cfg Config, opts ...CodecOption) (TokenCodec, error) {
	switch cfg.TokenFormat {
	case "", FormatJWT:
		return NewJWTCodec(cfg.Secret, cfg.AccessTTL, opts...)
	case FormatPaseto:
		return NewPasetoCodec(cfg.Secret, cfg.AccessTTL, opts...)
	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.TokenFormat)
	}
}

func effectiveTTL(ttl, fallback time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultAccessTTL
}
