package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/validation"
	"github.com/gin-gonic/gin"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Detail    string                  `json:"detail"`
	Code      string                  `json:"code"`
	RequestID string                  `json:"request_id,omitempty"`
	Errors    []validation.FieldError `json:"errors,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString(middlewares.CtxRequestID); id != "" {
		return id
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, detail string, fields []validation.FieldError) {
	ctx.AbortWithStatusJSON(status, APIError{
		Detail:    detail,
		Code:      code,
		RequestID: requestIDFrom(ctx),
		Errors:    fields,
	})
}

func RespondValidation(ctx *gin.Context, fields []validation.FieldError) {
	RespondError(ctx, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fields)
}

func RespondBadRequest(ctx *gin.Context, code, detail string) {
	RespondError(ctx, http.StatusBadRequest, code, detail, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, detail string) {
	ctx.Header("WWW-Authenticate", "Bearer")
	RespondError(ctx, http.StatusUnauthorized, code, detail, nil)
}

func RespondForbidden(ctx *gin.Context, code string) {
	RespondError(ctx, http.StatusForbidden, code, "Not authenticated", nil)
}

func RespondUnavailable(ctx *gin.Context) {
	RespondError(ctx, http.StatusServiceUnavailable, "service_unavailable", "Service temporarily unavailable", nil)
}

func RespondInternal(ctx *gin.Context, detail string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", detail, nil)
}

// RespondAuthError translates an auth-core failure into its HTTP form.
func RespondAuthError(ctx *gin.Context, log *slog.Logger, err error) {
	var ve *auth.ValidationError
	var de *auth.DuplicateUserError

	kind := auth.Kind(err)

	switch {
	case errors.As(err, &ve):
		RespondValidation(ctx, ve.Fields)
	case errors.As(err, &de):
		RespondBadRequest(ctx, kind, de.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, kind, "Incorrect email or password")
	case errors.Is(err, auth.ErrAccountDisabled):
		RespondBadRequest(ctx, kind, "Inactive user account")
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMalformedToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrUnauthorized):
		RespondForbidden(ctx, kind)
	case errors.Is(err, auth.ErrServiceUnavailable):
		log.ErrorContext(ctx.Request.Context(), "auth dependency failure", "err", err, "request_id", requestIDFrom(ctx))
		RespondUnavailable(ctx)
	default:
		log.ErrorContext(ctx.Request.Context(), "unexpected auth failure", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Internal server error")
	}
}
