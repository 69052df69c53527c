package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/embyplay/internal/emby"
	"github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/playback"
)

// statusClientClosed is the de facto status for a request the client abandoned.
const statusClientClosed = 499

// Problem is the JSON error body.
type Problem struct {
	Code      string `json:"code"`
	Detail    string `json:"detail"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-API-Version", apiVersion)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, Problem{Code: code, Detail: detail})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api.v1")
		logger.Error().Err(err).Str("code", code).Msg("request failed")
	}
	writeJSON(w, status, Problem{
		Code:      code,
		Detail:    err.Error(),
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, playback.ErrMissingItemID):
		return http.StatusBadRequest, "missing_item_id"
	case errors.Is(err, playback.ErrUnknownSession):
		return http.StatusNotFound, "unknown_session"
	case errors.Is(err, playback.ErrNoPlaybackInfo):
		return http.StatusNotFound, "no_playback_info"
	case errors.Is(err, playback.ErrInvalidPlayback):
		return http.StatusUnprocessableEntity, "invalid_playback"
	case errors.Is(err, emby.ErrNotFound):
		return http.StatusNotFound, "item_not_found"
	case errors.Is(err, emby.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, emby.ErrCanceled), errors.Is(err, context.Canceled):
		return statusClientClosed, "canceled"
	case errors.Is(err, emby.ErrUnavailable):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case errors.Is(err, emby.ErrTransport):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
