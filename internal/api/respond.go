package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/logger"
)

const internalErrorMessage = "Something went wrong!"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleError maps service errors onto status codes. notFound is the message sent for
// ErrNotFound; storage and unexpected errors are logged and reported generically.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, route string, err error, notFound string) {
	switch {
	case apperrors.IsNotFound(err):
		writeError(w, http.StatusNotFound, notFound)
	case apperrors.IsValidation(err):
		s.metrics.ObserveError(route, "validation")
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.metrics.ObserveError(route, "internal")
		logger.Error("request failed",
			"route", route,
			"error", err,
			"request_id", RequestIDFrom(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}
