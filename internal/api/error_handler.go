package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the domain error taxonomy to distinct HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, auth, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: statusCode(he.Code)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "validation_failed"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: err.Error(), Code: "forbidden"}
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "invalid_state"}
	case errors.Is(err, domain.ErrTransactionFailure):
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("transaction failed")
		return http.StatusServiceUnavailable, errorResponse{Error: "transaction failed, try again", Code: "transaction_failed"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"}
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "invalid_state"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		if status >= http.StatusInternalServerError {
			return "internal"
		}
		return "error"
	}
}
