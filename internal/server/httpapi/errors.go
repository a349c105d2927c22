package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/and161185/cardvault/internal/errs"
)

// StatusOf maps a service error to an HTTP status and a user-visible message.
func StatusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "too many sign-in attempts, try again later"
	case errors.Is(err, errs.ErrStorage):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	}
	return http.StatusInternalServerError, "internal"
}

func abortError(c *gin.Context, err error) {
	code, msg := StatusOf(err)
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// bindError turns a ShouldBind failure into a validation error naming the
// offending JSON fields.
func bindError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs.Validation("malformed request body")
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, "invalid email address")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errs.Validation(strings.Join(msgs, "; "))
}
