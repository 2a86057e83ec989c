package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/authentiscan/identity-service/internal/core/auth"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "token"

// ContextUserID is the echo context key under which the authenticated
// subject is stored.
const ContextUserID = "user_id"

// TokenVerifier validates a session token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Session verifies the session token and injects the subject into the
// request context. The token is read from the session cookie, falling back
// to an Authorization bearer header for non-cookie clients. Requests without
// a verifiable token never reach the handler.
func Session(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authorized. Please log in.")
			}

			subject, err := verifier.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, sessionFailure(err))
			}

			c.Set(ContextUserID, subject)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func sessionFailure(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "Session expired. Please log in again."
	case errors.Is(err, auth.ErrTokenMalformed):
		return "Malformed token. Please log in again."
	default:
		return "Invalid token. Please log in again."
	}
}
