package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	auth Authenticator
	log  *slog.Logger
}

func NewAuthMiddleware(a Authenticator, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{auth: a, log: log}
}

// RequireAuth rejects the request before it reaches the handler unless it
// carries a bearer token that resolves to an active user.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortAuth(c, auth.ErrUnauthenticated)
			return
		}

		u, err := m.auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, auth.ErrServiceUnavailable) {
				m.log.ErrorContext(c.Request.Context(), "authenticate failed", "err", err)
			} else {
				m.log.DebugContext(c.Request.Context(), "authentication rejected", "kind", auth.Kind(err))
			}
			abortAuth(c, err)
			return
		}

		// Stash the identity on both the gin and the request context
		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))

		c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
// The scheme is case-insensitive; anything other than exactly two parts is rejected.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func abortAuth(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrServiceUnavailable) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"detail":     "Service temporarily unavailable",
			"code":       auth.Kind(err),
			"request_id": c.GetString(CtxRequestID),
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"detail":     "Not authenticated",
		"code":       auth.Kind(err),
		"request_id": c.GetString(CtxRequestID),
	})
}

// Optional helper so handlers don't need to know the magic key.
func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
