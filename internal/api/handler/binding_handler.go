package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

// publishActions and renameActions name the action each entity type needs.
var publishActions = map[domain.EntityType]domain.Action{
	domain.EntityPlace:      domain.ActionPublishPlace,
	domain.EntityEvent:      domain.ActionEditEvent,
	domain.EntityStaticPage: domain.ActionEditPage,
	domain.EntityLegalPage:  domain.ActionManageLegalPages,
}

var renameActions = map[domain.EntityType]domain.Action{
	domain.EntityPlace:      domain.ActionEditPlace,
	domain.EntityEvent:      domain.ActionEditEvent,
	domain.EntityStaticPage: domain.ActionEditPage,
	domain.EntityLegalPage:  domain.ActionManageLegalPages,
}

// BindingHandler publishes and renames slugs on a site.
type BindingHandler struct {
	bindings ports.BindingService
	perms    ports.PermissionService
	owners   ports.OwnershipRepository
}

func NewBindingHandler(bindings ports.BindingService, perms ports.PermissionService, owners ports.OwnershipRepository) *BindingHandler {
	return &BindingHandler{bindings: bindings, perms: perms, owners: owners}
}

type bindingRequest struct {
	Lang       string `json:"lang"        validate:"required,len=2"`
	Slug       string `json:"slug"        validate:"required,slug"`
	EntityType string `json:"entity_type" validate:"required,oneof=place event static_page legal_page"`
	EntityID   string `json:"entity_id"   validate:"required"`
}

type bindingResponse struct {
	Canonical domain.Triple    `json:"canonical"`
	Entity    domain.EntityRef `json:"entity"`
}

// Publish handles POST /v1/admin/sites/:site/bindings.
//
// @Summary      Publish an entity under a slug
// @Tags         bindings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        site  path      string          true  "Site key"
// @Param        body  body      bindingRequest  true  "Binding"
// @Success      201   {object}  bindingResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/sites/{site}/bindings [post]
func (h *BindingHandler) Publish(c echo.Context) error {
	req, err := h.authorize(c, publishActions)
	if err != nil {
		return err
	}

	b := domain.SlugBinding{
		Triple: domain.Triple{Lang: req.Lang, SiteKey: c.Param("site"), Slug: req.Slug},
		Entity: domain.EntityRef{Type: domain.EntityType(req.EntityType), ID: req.EntityID},
	}
	if err := h.bindings.Publish(c.Request().Context(), b); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bindingResponse{Canonical: b.Triple.Normalize(), Entity: b.Entity})
}

// Rename handles POST /v1/admin/sites/:site/bindings/rename. The previous
// slug keeps working as a redirect.
//
// @Summary      Rename an entity's slug
// @Tags         bindings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        site  path      string          true  "Site key"
// @Param        body  body      bindingRequest  true  "New binding"
// @Success      200   {object}  bindingResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/admin/sites/{site}/bindings/rename [post]
func (h *BindingHandler) Rename(c echo.Context) error {
	req, err := h.authorize(c, renameActions)
	if err != nil {
		return err
	}

	to := domain.Triple{Lang: req.Lang, SiteKey: c.Param("site"), Slug: req.Slug}
	entity := domain.EntityRef{Type: domain.EntityType(req.EntityType), ID: req.EntityID}
	if err := h.bindings.Rename(c.Request().Context(), entity, to); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bindingResponse{Canonical: to.Normalize(), Entity: entity})
}

// authorize binds and validates the request, then checks the entity type's
// action. The scope comes from the stored owner of the entity: its site must
// be the one in the path, and only places and place-hosted events are
// checked against a place.
func (h *BindingHandler) authorize(c echo.Context, actions map[domain.EntityType]domain.Action) (bindingRequest, error) {
	userID, err := ctxUserID(c)
	if err != nil {
		return bindingRequest{}, err
	}

	var req bindingRequest
	if err := c.Bind(&req); err != nil {
		return bindingRequest{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return bindingRequest{}, echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	entity := domain.EntityRef{Type: domain.EntityType(req.EntityType), ID: req.EntityID}
	owner, err := h.owners.FindOwner(c.Request().Context(), entity)
	if err != nil {
		return bindingRequest{}, err
	}
	site := domain.Triple{SiteKey: c.Param("site")}.Normalize().SiteKey
	if owner.SiteKey != site {
		return bindingRequest{}, domain.ErrForbidden
	}

	var placeID string
	switch entity.Type {
	case domain.EntityPlace, domain.EntityEvent:
		placeID = owner.PlaceID
	}

	perm, err := h.perms.CheckPermission(c.Request().Context(), ports.PermissionCheckInput{
		UserID:  userID,
		Action:  actions[entity.Type],
		SiteID:  site,
		PlaceID: placeID,
	})
	if err != nil {
		return bindingRequest{}, err
	}
	if !perm.Allowed {
		return bindingRequest{}, domain.ErrForbidden
	}
	return req, nil
}
