package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errUnexpectedMethod = errors.New("unexpected signing method")

type jwtClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTCodec issues HS256 access tokens.
type JWTCodec struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewJWTCodec(secret []byte, accessTTL time.Duration, opts ...CodecOption) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt codec: empty secret")
	}

	o := buildCodecOptions(opts)

	return &JWTCodec{
		secret:    secret,
		accessTTL: effectiveTTL(accessTTL, DefaultAccessTTL),
		now:       o.now,
	}, nil
}

func (c *JWTCodec) Issue(subject string, ttl time.Duration) (string, error) {
	now := c.now().UTC()

	claims := jwtClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(effectiveTTL(ttl, c.accessTTL))),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *JWTCodec) Verify(tokenStr string) (Claims, error) {
	var claims jwtClaims

	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		// Enforce HS256. A foreign alg is a malformed token, not a bad signature.
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errUnexpectedMethod
		}
		return c.secret, nil
	},
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSignature
		default:
			return Claims{}, ErrMalformedToken
		}
	}

	if claims.TokenType != tokenTypeAccess || claims.Subject == "" {
		return Claims{}, ErrMalformedToken
	}

	out := Claims{
		Subject:   claims.Subject,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	return out, nil
}
