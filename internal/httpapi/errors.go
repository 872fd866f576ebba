package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"voiced/internal/manager"
	"voiced/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusFor maps manager errors to HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case manager.IsUnknownVoice(err):
		return http.StatusBadRequest
	case manager.IsTooBusy(err):
		return http.StatusTooManyRequests
	case manager.IsNotLoaded(err), manager.IsLoadFailure(err), errors.Is(err, manager.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case manager.IsSynthesisFailure(err):
		return http.StatusInternalServerError
	case errors.As(err, &he):
		return he.StatusCode()
	default:
		return http.StatusInternalServerError
	}
}
