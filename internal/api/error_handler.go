package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/authentiscan/identity-service/internal/core/auth"
	"github.com/authentiscan/identity-service/internal/core/domain"
)

// envelope is the canonical response shape for every API error:
// {"success": false, "message": "<reason>"}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the uniform {"success": false, "message": ...} envelope.
//
// Handlers that need the soft-failure shape (HTTP 200 with success=false,
// as the reset flow does) render it themselves and never reach this handler.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, envelope{Success: false, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, middleware 401s).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, "Missing required fields"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, domain.ErrUnknownEmail):
		return http.StatusNotFound, "Invalid email"
	case errors.Is(err, domain.ErrInvalidPassword):
		return http.StatusUnauthorized, "Invalid password"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrMissingOTP):
		return http.StatusBadRequest, "Missing OTP"
	case errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenMalformed):
		return http.StatusUnauthorized, "Invalid or expired token"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
