// handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fitcomp/evidence"
	"fitcomp/models"
	"fitcomp/scoring"
	"fitcomp/services"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func success(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func created(w http.ResponseWriter, data interface{}, msg string) {
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: data, Message: msg})
}

func message(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: msg})
}

func fail(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: code, Message: msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	fail(w, http.StatusBadRequest, "bad_request", msg)
}

// writeError maps service and engine errors onto HTTP statuses. Anything
// unrecognised is logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		fail(w, status, code, "internal error")
		return
	}
	fail(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrCompetitionNotFound):
		return http.StatusNotFound, "competition_not_found"
	case errors.Is(err, services.ErrSubmissionNotFound):
		return http.StatusNotFound, "submission_not_found"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, services.ErrNotParticipant):
		return http.StatusForbidden, "not_participant"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrUserExists):
		return http.StatusConflict, "user_exists"
	case errors.Is(err, models.ErrInvalidCompetition):
		return http.StatusUnprocessableEntity, "invalid_competition"
	case errors.Is(err, services.ErrEvidenceDisabled):
		return http.StatusServiceUnavailable, "evidence_disabled"
	case errors.Is(err, evidence.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, "unsupported_image"
	case errors.Is(err, scoring.ErrRuleNotFound),
		errors.Is(err, scoring.ErrLimitReached),
		errors.Is(err, scoring.ErrPaceNotMet),
		errors.Is(err, scoring.ErrInvalidRule),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrDateOutsideWindow):
		return http.StatusUnprocessableEntity, services.RejectionReason(err)
	}
	return http.StatusInternalServerError, "internal"
}

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
