package api

import (
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	service "github.com/okian/truerecord/internal/app"
	"github.com/okian/truerecord/pkg/logger"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, msg)
}

// statusFor maps a service error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrRefreshInFlight):
		return http.StatusConflict, "refresh_in_flight"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, service.ErrUpstream), errors.Is(err, service.ErrNoWeeks):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", chimiddleware.GetReqID(r.Context())),
			logger.Error(err))
		// Do not leak cache internals.
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}
