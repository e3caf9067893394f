package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/geocoder89/taskhub/internal/validation"
	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into out. Decode failures are answered
// with 422 and field-level detail, an oversized body with 413.
func BindJSON(ctx *gin.Context, out any) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large", nil)
		return false
	}

	if errors.Is(err, io.EOF) {
		RespondValidation(ctx, []validation.FieldError{{Field: "body", Rule: "required", Message: "is required"}})
		return false
	}

	if fields, ok := validation.FromError(err, out); ok {
		RespondValidation(ctx, fields)
		return false
	}

	RespondValidation(ctx, []validation.FieldError{{Field: "body", Rule: "json", Message: "must be valid JSON"}})
	return false
}
