package handler

import (
	"errors"
	"net/http"

	"lighthouse_dashboard/internal/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/hlog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RetryAfterSeconds is sent with 429 responses.
const RetryAfterSeconds = "60"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: message})
}

// writeError maps service errors onto status codes. Unclassified errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := hlog.FromRequest(r)

	switch {
	case errors.Is(err, metrics.ErrRateLimited):
		logger.Warn().Err(err).Msg("Upstream rate limited")
		w.Header().Set("Retry-After", RetryAfterSeconds)
		writeJSON(w, r, http.StatusTooManyRequests, errorResponse{Error: metrics.ErrRateLimited.Error()})
	case errors.Is(err, metrics.ErrSheetNotFound):
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, metrics.ErrNoValidData):
		writeJSON(w, r, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		logger.Error().Err(err).Msg("Request failed")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
