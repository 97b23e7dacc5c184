package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citydirectory/directory-core/internal/api/middleware"
)

// ctxUserID extracts the subject injected by the Auth middleware. An empty
// subject means the middleware did not run; reject with 401 before any
// service call.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.KeyUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}
