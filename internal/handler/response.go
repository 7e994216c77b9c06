package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/occurrence"
)

const (
	errTypeInvalidRequest = "invalid_request"
	errTypeUnauthorized   = "unauthorized"
	errTypeForbidden      = "forbidden"
	errTypeNotFound       = "not_found"
	errTypePlatform       = "platform_error"
	errTypeInternal       = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, status int, errType, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:   errType,
		Message: message,
	})
}

// respondDomainError maps service and store errors to a status code. Anything
// unrecognised is logged and reported as a 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrReminderNotFound), errors.Is(err, domain.ErrAlarmNotFound):
		respondError(c, http.StatusNotFound, errTypeNotFound, err.Error())
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidFieldValue),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidUntilDate),
		errors.Is(err, domain.ErrMissingCustomPatterns),
		errors.Is(err, occurrence.ErrUnknownPeriod):
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
	case errors.Is(err, domain.ErrPlatformCeiling):
		respondError(c, http.StatusConflict, errTypePlatform, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, errTypeInternal, "internal server error")
	}
}
