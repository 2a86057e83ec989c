package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/authentiscan/identity-service/internal/api/middleware"
)

// subjectID extracts the authenticated account id injected by the Session
// middleware. Its presence proves the middleware ran; protected handlers
// fast-fail with 401 rather than querying storage with an empty id.
func subjectID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
