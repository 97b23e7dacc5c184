package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

// RequirePermission allows the request only when the authenticated user may
// perform action in the site named by the ":site" path parameter. It must run
// after Auth. Place scopes are never taken from the request; handlers derive
// them from the stored entity.
//
// Lookup failures are returned to the error handler (503), never turned into
// a 403.
func RequirePermission(perms ports.PermissionService, action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(KeyUserID).(string)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			perm, err := perms.CheckPermission(c.Request().Context(), ports.PermissionCheckInput{
				UserID: userID,
				Action: action,
				SiteID: domain.Triple{SiteKey: c.Param("site")}.Normalize().SiteKey,
			})
			if err != nil {
				return err
			}
			if !perm.Allowed {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
