package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"meetmed/internal/database"
	"meetmed/internal/scheduling"
	"meetmed/internal/service"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Code: code})
}

// classify maps a service error to a status code and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, scheduling.ErrUnauthenticated):
		return http.StatusUnauthorized, scheduling.Kind(err)
	case errors.Is(err, scheduling.ErrNotFound):
		return http.StatusNotFound, scheduling.Kind(err)
	case errors.Is(err, scheduling.ErrInvalidRequest),
		errors.Is(err, scheduling.ErrInvalidDate),
		errors.Is(err, scheduling.ErrInvalidTime),
		errors.Is(err, scheduling.ErrAlreadyProcessed),
		errors.Is(err, scheduling.ErrInvalidState),
		errors.Is(err, scheduling.ErrCancellationWindowExpired):
		return http.StatusUnprocessableEntity, scheduling.Kind(err)
	case errors.Is(err, scheduling.ErrPatientConflict),
		errors.Is(err, scheduling.ErrDoctorConflict):
		return http.StatusConflict, scheduling.Kind(err)
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "email_taken"
	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too_many_attempts"
	case errors.Is(err, service.ErrReviewLimit):
		return http.StatusTooManyRequests, "review_limit"
	case errors.Is(err, database.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// respondError writes err as a JSON error. Unclassified errors are logged
// and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}
