package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
)

// ResolveHandler exposes slug resolution to the public site.
type ResolveHandler struct {
	gateway ports.RoutingGateway
}

func NewResolveHandler(gateway ports.RoutingGateway) *ResolveHandler {
	return &ResolveHandler{gateway: gateway}
}

type resolveQuery struct {
	Query    string `query:"query"`
	Fragment string `query:"fragment"`
}

type resolveResponse struct {
	Decision   string        `json:"decision"`
	Location   string        `json:"location,omitempty"`
	EntityType string        `json:"entity_type"`
	EntityID   string        `json:"entity_id"`
	Canonical  domain.Triple `json:"canonical"`
}

// Resolve handles GET /v1/resolve/:lang/:site/:slug.
//
// The client passes the query string and fragment of the page it is on so the
// decision can carry them over.
//
// @Summary      Resolve a public address
// @Tags         routing
// @Produce      json
// @Param        lang      path      string  true   "Language code (e.g. hu)"
// @Param        site      path      string  true   "Site key"
// @Param        slug      path      string  true   "Slug"
// @Param        query     query     string  false  "Raw query string of the current page"
// @Param        fragment  query     string  false  "Fragment of the current page"
// @Success      200       {object}  resolveResponse
// @Failure      404       {object}  errorResponse
// @Failure      503       {object}  errorResponse
// @Router       /v1/resolve/{lang}/{site}/{slug} [get]
func (h *ResolveHandler) Resolve(c echo.Context) error {
	var q resolveQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}

	decision, err := h.gateway.Navigate(c.Request().Context(), ports.NavigationRequest{
		Triple:   tripleParams(c),
		Query:    q.Query,
		Fragment: q.Fragment,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resolveResponse{
		Decision:   string(decision.Action),
		Location:   decision.Location,
		EntityType: string(decision.Result.EntityType),
		EntityID:   decision.Result.Entity.ID,
		Canonical:  decision.Result.Canonical,
	})
}

// Page handles GET /:lang/:site/:slug for server-side navigation: historical
// slugs answer 302 to the canonical address, canonical ones describe the
// entity to render. Fragments never reach the server and are not carried.
//
// The redirect is temporary: a slug may become canonical again after a
// rename back, and a browser-cached permanent redirect would then loop.
//
// @Summary      Navigate to a public page
// @Tags         routing
// @Produce      json
// @Param        lang  path  string  true  "Language code"
// @Param        site  path  string  true  "Site key"
// @Param        slug  path  string  true  "Slug"
// @Success      200   {object}  resolveResponse
// @Success      302
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /{lang}/{site}/{slug} [get]
func (h *ResolveHandler) Page(c echo.Context) error {
	decision, err := h.gateway.Navigate(c.Request().Context(), ports.NavigationRequest{
		Triple: tripleParams(c),
		Query:  c.QueryString(),
	})
	if err != nil {
		return err
	}

	if decision.Action == ports.RouteRedirect {
		return c.Redirect(http.StatusFound, decision.Location)
	}
	return c.JSON(http.StatusOK, resolveResponse{
		Decision:   string(decision.Action),
		EntityType: string(decision.Result.EntityType),
		EntityID:   decision.Result.Entity.ID,
		Canonical:  decision.Result.Canonical,
	})
}

func tripleParams(c echo.Context) domain.Triple {
	return domain.Triple{
		Lang:    c.Param("lang"),
		SiteKey: c.Param("site"),
		Slug:    c.Param("slug"),
	}
}
