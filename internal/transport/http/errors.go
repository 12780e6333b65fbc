package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"daily-trivia-service/internal/domain"
	"github.com/sirupsen/logrus"
)

// statusFor maps the domain error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionsNotFound),
		errors.Is(err, domain.ErrParticipationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyCompleted),
		errors.Is(err, domain.ErrAlreadyGenerated),
		errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict
	// generation wraps validation failures, so it is checked first
	case errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}
