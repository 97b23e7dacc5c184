package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

// PermissionHandler lets the admin dashboard ask what the current user may do.
type PermissionHandler struct {
	perms ports.PermissionService
}

func NewPermissionHandler(perms ports.PermissionService) *PermissionHandler {
	return &PermissionHandler{perms: perms}
}

type permissionCheckRequest struct {
	Action       string `json:"action"        validate:"required"`
	RequiredRole string `json:"required_role" validate:"omitempty,role"`
	SiteID       string `json:"site_id"`
	PlaceID      string `json:"place_id"`
}

type permissionScopeQuery struct {
	SiteID  string `query:"site_id"`
	PlaceID string `query:"place_id"`
}

// Check handles POST /v1/permissions/check.
//
// @Summary      Evaluate a permission for the current user
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      permissionCheckRequest  true  "Action and scope"
// @Success      200   {object}  domain.EffectivePermission
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/permissions/check [post]
func (h *PermissionHandler) Check(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req permissionCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	var role domain.Role
	if req.RequiredRole != "" {
		// validated above
		role, _ = domain.ParseRole(req.RequiredRole)
	}

	perm, err := h.perms.CheckPermission(c.Request().Context(), ports.PermissionCheckInput{
		UserID:       userID,
		Action:       domain.Action(req.Action),
		RequiredRole: role,
		SiteID:       req.SiteID,
		PlaceID:      req.PlaceID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, perm)
}

// ForAction handles GET /v1/me/permissions/:action using the action catalogue.
//
// @Summary      Check a catalogued action for the current user
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        action    path      string  true   "Action name (e.g. editPlace)"
// @Param        site_id   query     string  false  "Site scope"
// @Param        place_id  query     string  false  "Place scope"
// @Success      200       {object}  domain.EffectivePermission
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      503       {object}  errorResponse
// @Router       /v1/me/permissions/{action} [get]
func (h *PermissionHandler) ForAction(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var q permissionScopeQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	perm, err := h.perms.CheckPermission(c.Request().Context(), ports.PermissionCheckInput{
		UserID:  userID,
		Action:  domain.Action(c.Param("action")),
		SiteID:  q.SiteID,
		PlaceID: q.PlaceID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, perm)
}
