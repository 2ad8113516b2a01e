package helpers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/domain"
)

// WriteServiceError maps a service error to its HTTP status and error code.
// Unexpected errors are logged and answered with a generic 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, validationMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "only the organizer can modify this event")
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "event not found")
	case errors.Is(err, domain.ErrUserNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, domain.ErrAlreadyParticipating):
		WriteJSONError(w, http.StatusConflict, ErrCodeAlreadyParticipating, "you are already participating in this event")
	case errors.Is(err, domain.ErrEventFull):
		WriteJSONError(w, http.StatusConflict, ErrCodeEventFull, "event is full")
	case errors.Is(err, domain.ErrNotParticipating):
		WriteJSONError(w, http.StatusConflict, ErrCodeNotParticipating, "you are not participating in this event")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

// validationMessage strips the sentinel prefixes from a wrapped validation error.
func validationMessage(err error) string {
	msg := err.Error()
	for _, prefix := range []string{domain.ErrInvalidInput.Error() + ": ", domain.ErrTooManyTags.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
