package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Unix(1_750_000_000, 0).UTC()

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestJWT(t *testing.T, secret string, clock *fakeClock) *JWTCodec {
	t.Helper()

	c, err := NewJWTCodec([]byte(secret), 30*time.Minute, WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

func TestJWTCodec_IssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: testEpoch}
	c := newTestJWT(t, "super-secret", clock)

	tok, err := c.Issue("user-123", time.Hour)
	require.NoError(t, err)

	claims, err := c.Verify(tok)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject)
	assert.NotEmpty(t, claims.JTI)
	assert.True(t, claims.IssuedAt.Equal(testEpoch))
	assert.True(t, claims.ExpiresAt.Equal(testEpoch.Add(time.Hour)))
}

func TestJWTCodec_DefaultTTL(t *testing.T) {
	clock := &fakeClock{t: testEpoch}
	c := newTestJWT(t, "super-secret", clock)

	tok, err := c.Issue("u1", 0)
	require.NoError(t, err)

	claims, err := c.Verify(tok)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Equal(testEpoch.Add(30*time.Minute)))
}

func TestJWTCodec_ExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: testEpoch}
	c := newTestJWT(t, "super-secret", clock)

	tok, err := c.Issue("u1", time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute - time.Second)
	_, err = c.Verify(tok)
	require.NoError(t, err, "one second before expiry must still verify")

	clock.Advance(time.Second)
	_, err = c.Verify(tok)
	require.ErrorIs(t, err, ErrExpiredToken, "now == exp is expired")

	clock.Advance(time.Hour)
	_, err = c.Verify(tok)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTCodec_TamperedSignature(t *testing.T) {
	clock := &fakeClock{t: testEpoch}
	c := newTestJWT(t, "super-secret", clock)

	tok, err := c.Issue("u1", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = c.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestJWTCodec_TamperedPayload(t *testing.T) {
	clock := &fakeClock{t: testEpoch}
	c := newTestJWT(t, "super-secret", clock)

	a, err := c.Issue("alice", time.Hour)
	require.NoError(t, err)
	b, err := c.Issue("bob", time.Hour)
	require.NoError(t, err)

	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")

	// bob's claims under alice's signature
	_, err = c.Verify(pa[0] + "." + pb[1] + "." + pa[2])
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestJWTCodec_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: testEpoch}

	tok, err := newTestJWT(t, "right-secret", clock).Issue("u1", time.Hour)
	require.NoError(t, err)

	_, err = newTestJWT(t, "wrong-secret", clock).Verify(tok)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestJWTCodec_Malformed(t *testing.T) {
	clock := &fakeClock{t: testEpoch}
	c := newTestJWT(t, "super-secret", clock)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	valid := jwtClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ID:        "jti-1",
			IssuedAt:  jwt.NewNumericDate(testEpoch),
			ExpiresAt: jwt.NewNumericDate(testEpoch.Add(time.Hour)),
		},
	}

	noExp := valid
	noExp.ExpiresAt = nil

	wrongType := valid
	wrongType.TokenType = "refresh"

	noSubject := valid
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "three garbage segments", token: "not.a.jwt"},
		{name: "alg none", token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{name: "alg HS512", token: sign(jwt.SigningMethodHS512, []byte("super-secret"), valid)},
		{name: "missing exp", token: sign(jwt.SigningMethodHS256, []byte("super-secret"), noExp)},
		{name: "wrong token type", token: sign(jwt.SigningMethodHS256, []byte("super-secret"), wrongType)},
		{name: "missing subject", token: sign(jwt.SigningMethodHS256, []byte("super-secret"), noSubject)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Verify(tc.token)
			require.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestNewJWTCodec_EmptySecret(t *testing.T) {
	_, err := NewJWTCodec(nil, time.Minute)
	require.Error(t, err)
}

func TestNewCodec_SelectsFormat(t *testing.T) {
	jc, err := NewCodec(Config{Secret: []byte("s"), TokenFormat: FormatJWT})
	require.NoError(t, err)
	assert.IsType(t, &JWTCodec{}, jc)

	pc, err := NewCodec(Config{Secret: []byte("s"), TokenFormat: FormatPaseto})
	require.NoError(t, err)
	assert.IsType(t, &PasetoCodec{}, pc)

	_, err = NewCodec(Config{Secret: []byte("s"), TokenFormat: "saml"})
	require.Error(t, err)
}
