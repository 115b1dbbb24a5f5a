package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/swiftlink/courier-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes. The resource lookups map
	// to 404; state conflicts where a retry may succeed map to 409; violations
	// of lifecycle preconditions map to 422.
	switch {
	case errors.Is(err, domain.ErrPacketNotFound):
		return http.StatusNotFound, "packet not found"
	case errors.Is(err, domain.ErrVehicleNotFound):
		return http.StatusNotFound, "vehicle not found"
	case errors.Is(err, domain.ErrAgentNotFound):
		return http.StatusNotFound, "agent not found"
	case errors.Is(err, domain.ErrPickupRequestNotFound):
		return http.StatusNotFound, "pickup request not found"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrDestinationMismatch):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict, "resource was modified concurrently, retry"
	case errors.Is(err, domain.ErrAlreadyDispatched):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrUnresolvableDestination):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrCityMismatch):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrInvalidAssignment):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrPreconditionFailed):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrRouteUnavailable):
		return http.StatusBadGateway, "routing provider unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
