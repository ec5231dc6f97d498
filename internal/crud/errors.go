package crud

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"locallibrary/internal/access"
	"locallibrary/internal/httpx"
)

// WriteError maps service and store errors onto the JSON error envelope.
// Unexpected errors are logged and reported as 500 without their message.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, access.ErrLoginRequired):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Login required", nil)
	case errors.Is(err, access.ErrAccessDenied):
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "You do not have permission to perform this action", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, ErrConflict):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "Resource already exists", nil)
	case errors.Is(err, ErrIntegrity):
		httpx.JSONError(w, r, http.StatusConflict, "INTEGRITY_VIOLATION", "Resource is referenced by other records", nil)
	default:
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", httpx.RequestIDFrom(r)),
			zap.Error(err),
		)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

// WriteValidation writes a 400 with per-field details.
func WriteValidation(w http.ResponseWriter, r *http.Request, details []httpx.ErrorDetail) {
	httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
}
