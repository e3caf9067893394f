package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const tokenTypeBearer = "bearer"

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (auth.Result, error)
	Login(ctx context.Context, email, password string) (auth.Result, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	svc     AuthService
	log     *slog.Logger
	timeout time.Duration
}

func NewAuthHandler(svc AuthService, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{svc: svc, log: log, timeout: 5 * time.Second}
}

type RegisterResponse struct {
	Message     string          `json:"message"`
	User        user.PublicView `json:"user"`
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	User        user.PublicView `json:"user"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req auth.RegisterInput
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.svc.Register(cctx, req)
	if err != nil {
		RespondAuthError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, RegisterResponse{
		Message:     "User registered successfully",
		User:        res.User.Public(),
		AccessToken: res.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   res.ExpiresAt,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req auth.LoginInput
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.svc.Login(cctx, req.Email, req.Password)
	if err != nil {
		RespondAuthError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   res.ExpiresAt,
		User:        res.User.Public(),
	})
}

// Logout never requires a valid token. When revocation is enabled the
// presented token stops authenticating before its natural expiry.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	token, _ := middlewares.BearerToken(ctx.GetHeader("Authorization"))

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.Logout(cctx, token); err != nil {
		RespondAuthError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Me must run behind RequireAuth.
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondForbidden(ctx, "unauthenticated")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u.Public())
}

func (h *AuthHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "auth"})
}
