package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/citydirectory/directory-core/internal/core/domain"
	"github.com/citydirectory/directory-core/internal/core/ports"
	"github.com/citydirectory/directory-core/internal/core/service"
)

type stubBindingService struct {
	publishErr error
	renameErr  error
	published  []domain.SlugBinding
	renamed    []domain.Triple
}

func (s *stubBindingService) Publish(_ context.Context, b domain.SlugBinding) error {
	s.published = append(s.published, b)
	return s.publishErr
}

func (s *stubBindingService) Rename(_ context.Context, _ domain.EntityRef, to domain.Triple) error {
	s.renamed = append(s.renamed, to)
	return s.renameErr
}

type stubOwnership struct {
	owners map[domain.EntityRef]domain.EntityOwner
}

func (s *stubOwnership) FindOwner(_ context.Context, e domain.EntityRef) (domain.EntityOwner, error) {
	o, ok := s.owners[e]
	if !ok {
		return domain.EntityOwner{}, domain.ErrNotFound
	}
	return o, nil
}

type stubMembershipRepo struct {
	grants map[string]domain.Grants
}

func (r *stubMembershipRepo) LoadMemberships(_ context.Context, userID string) (domain.Grants, error) {
	g, ok := r.grants[userID]
	if !ok {
		return domain.Grants{}, domain.ErrUserNotFound
	}
	return g, nil
}

var (
	placeP1  = domain.EntityRef{Type: domain.EntityPlace, ID: "P1"}
	placeP2  = domain.EntityRef{Type: domain.EntityPlace, ID: "P2"}
	eventE1  = domain.EntityRef{Type: domain.EntityEvent, ID: "E1"}
	pagePG9  = domain.EntityRef{Type: domain.EntityStaticPage, ID: "PAGE9"}
	legalLG1 = domain.EntityRef{Type: domain.EntityLegalPage, ID: "LG1"}
)

func budapestOwners() *stubOwnership {
	return &stubOwnership{owners: map[domain.EntityRef]domain.EntityOwner{
		placeP1:  {SiteKey: "budapest", PlaceID: "P1"},
		placeP2:  {SiteKey: "szeged", PlaceID: "P2"},
		eventE1:  {SiteKey: "budapest", PlaceID: "P1"},
		pagePG9:  {SiteKey: "budapest"},
		legalLG1: {SiteKey: "budapest"},
	}}
}

// placeOwnerPermissions evaluates checks for u1, a global viewer who owns P1
// and has no site memberships.
func placeOwnerPermissions() ports.PermissionService {
	return service.NewPermissionService(&stubMembershipRepo{grants: map[string]domain.Grants{
		"u1": {
			GlobalRole: domain.RoleViewer,
			Places:     []domain.PlaceMembership{{PlaceID: "P1", Role: domain.RolePlaceOwner}},
		},
	}}, zerolog.Nop())
}

func newSiteContext(site, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newAuthedContext(http.MethodPost, target, body, userID)
	c.SetParamNames("site")
	c.SetParamValues(site)
	return c, rec
}

func TestBindingHandler_Publish_Place(t *testing.T) {
	perms := &stubPermissionService{perm: domain.EffectivePermission{Allowed: true, WinningScope: domain.ScopePlace}}
	bindings := &stubBindingService{}
	h := NewBindingHandler(bindings, perms, budapestOwners())

	c, rec := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings",
		`{"lang":"hu","slug":"kave-haz","entity_type":"place","entity_id":"P1"}`, "u1")
	if err := h.Publish(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	wantCheck := ports.PermissionCheckInput{
		UserID:  "u1",
		Action:  domain.ActionPublishPlace,
		SiteID:  "budapest",
		PlaceID: "P1",
	}
	if len(perms.calls) != 1 || perms.calls[0] != wantCheck {
		t.Fatalf("unexpected permission checks: %+v", perms.calls)
	}
	if len(bindings.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(bindings.published))
	}
	got := bindings.published[0]
	if got.Triple != (domain.Triple{Lang: "hu", SiteKey: "budapest", Slug: "kave-haz"}) {
		t.Fatalf("unexpected triple: %+v", got.Triple)
	}
	if got.Entity != placeP1 {
		t.Fatalf("unexpected entity: %+v", got.Entity)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	canonical, ok := resp["canonical"].(map[string]any)
	if !ok || canonical["slug"] != "kave-haz" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestBindingHandler_Publish_EventUsesStoredPlace(t *testing.T) {
	perms := &stubPermissionService{perm: domain.EffectivePermission{Allowed: true, WinningScope: domain.ScopePlace}}
	h := NewBindingHandler(&stubBindingService{}, perms, budapestOwners())

	// place_id in the body is not part of the request type and is ignored.
	c, _ := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings",
		`{"lang":"hu","slug":"jazz-est","entity_type":"event","entity_id":"E1","place_id":"P9"}`, "u1")
	if err := h.Publish(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if len(perms.calls) != 1 {
		t.Fatalf("expected one permission check, got %d", len(perms.calls))
	}
	if perms.calls[0].Action != domain.ActionEditEvent || perms.calls[0].PlaceID != "P1" {
		t.Fatalf("unexpected permission check: %+v", perms.calls[0])
	}
}

func TestBindingHandler_Publish_SitePagesIgnorePlaceGrants(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"static page", `{"lang":"hu","slug":"aszf","entity_type":"static_page","entity_id":"PAGE9","place_id":"P1"}`},
		{"legal page", `{"lang":"hu","slug":"adatvedelem","entity_type":"legal_page","entity_id":"LG1","place_id":"P1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bindings := &stubBindingService{}
			h := NewBindingHandler(bindings, placeOwnerPermissions(), budapestOwners())

			c, _ := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings", tt.body, "u1")
			if err := h.Publish(c); !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
			if len(bindings.published) != 0 {
				t.Fatalf("a place grant must not publish site pages: %+v", bindings.published)
			}
		})
	}
}

func TestBindingHandler_Publish_PlaceOwnerOwnPlace(t *testing.T) {
	bindings := &stubBindingService{}
	h := NewBindingHandler(bindings, placeOwnerPermissions(), budapestOwners())

	c, rec := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings",
		`{"lang":"hu","slug":"kave-haz","entity_type":"place","entity_id":"P1"}`, "u1")
	if err := h.Publish(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated || len(bindings.published) != 1 {
		t.Fatalf("expected the owner to publish their place, got %d %+v", rec.Code, bindings.published)
	}
}

func TestBindingHandler_Publish_EntityOnAnotherSite(t *testing.T) {
	bindings := &stubBindingService{}
	perms := &stubPermissionService{perm: domain.EffectivePermission{Allowed: true, WinningScope: domain.ScopePlace}}
	h := NewBindingHandler(bindings, perms, budapestOwners())

	// P1 lives on budapest; publishing it under szeged is refused before any check.
	c, _ := newSiteContext("szeged", "/v1/admin/sites/szeged/bindings",
		`{"lang":"hu","slug":"kave-haz","entity_type":"place","entity_id":"P1"}`, "u1")
	if err := h.Publish(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(perms.calls) != 0 || len(bindings.published) != 0 {
		t.Fatalf("nothing should run for a foreign entity: %+v %+v", perms.calls, bindings.published)
	}
}

func TestBindingHandler_Publish_UnknownEntity(t *testing.T) {
	perms := &stubPermissionService{}
	h := NewBindingHandler(&stubBindingService{}, perms, budapestOwners())

	c, _ := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings",
		`{"lang":"hu","slug":"semmi","entity_type":"event","entity_id":"E404"}`, "u1")
	if err := h.Publish(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(perms.calls) != 0 {
		t.Fatalf("permission check must not run for an unknown entity")
	}
}

func TestBindingHandler_Publish_Forbidden(t *testing.T) {
	perms := &stubPermissionService{perm: domain.EffectivePermission{Allowed: false, WinningScope: domain.ScopeNone}}
	bindings := &stubBindingService{}
	h := NewBindingHandler(bindings, perms, budapestOwners())

	c, _ := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings",
		`{"lang":"hu","slug":"kave-haz","entity_type":"place","entity_id":"P1"}`, "u1")
	if err := h.Publish(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(bindings.published) != 0 {
		t.Fatalf("publish must not run when the check denies")
	}
}

func TestBindingHandler_Publish_InvalidSlug(t *testing.T) {
	perms := &stubPermissionService{}
	h := NewBindingHandler(&stubBindingService{}, perms, budapestOwners())

	c, _ := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings",
		`{"lang":"hu","slug":"Kave Haz","entity_type":"place","entity_id":"P1"}`, "u1")
	err := h.Publish(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 HTTPError, got %v", err)
	}
	if len(perms.calls) != 0 {
		t.Fatalf("permission check must not run for an invalid body")
	}
}

func TestBindingHandler_Publish_SlugTaken(t *testing.T) {
	perms := &stubPermissionService{perm: domain.EffectivePermission{Allowed: true, WinningScope: domain.ScopeGlobal}}
	h := NewBindingHandler(&stubBindingService{publishErr: domain.ErrSlugTaken}, perms, budapestOwners())

	c, _ := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings",
		`{"lang":"hu","slug":"kave-haz","entity_type":"place","entity_id":"P1"}`, "u1")
	if err := h.Publish(c); !errors.Is(err, domain.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestBindingHandler_Rename(t *testing.T) {
	perms := &stubPermissionService{perm: domain.EffectivePermission{Allowed: true, WinningScope: domain.ScopeSite}}
	bindings := &stubBindingService{}
	h := NewBindingHandler(bindings, perms, budapestOwners())

	c, rec := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings/rename",
		`{"lang":"hu","slug":"uj-nev","entity_type":"place","entity_id":"P1"}`, "u1")
	if err := h.Rename(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(perms.calls) != 1 || perms.calls[0].Action != domain.ActionEditPlace {
		t.Fatalf("unexpected permission checks: %+v", perms.calls)
	}
	if len(bindings.renamed) != 1 || bindings.renamed[0] != canonicalTriple {
		t.Fatalf("unexpected renames: %+v", bindings.renamed)
	}
}

func TestBindingHandler_Rename_OtherPlaceForbidden(t *testing.T) {
	bindings := &stubBindingService{}
	owners := budapestOwners()
	owners.owners[placeP2] = domain.EntityOwner{SiteKey: "budapest", PlaceID: "P2"}
	h := NewBindingHandler(bindings, placeOwnerPermissions(), owners)

	c, _ := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings/rename",
		`{"lang":"hu","slug":"uj-nev","entity_type":"place","entity_id":"P2"}`, "u1")
	if err := h.Rename(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(bindings.renamed) != 0 {
		t.Fatalf("rename must not run for another owner's place")
	}
}

func TestBindingHandler_Unauthenticated(t *testing.T) {
	perms := &stubPermissionService{}
	h := NewBindingHandler(&stubBindingService{}, perms, budapestOwners())

	c, _ := newSiteContext("budapest", "/v1/admin/sites/budapest/bindings/rename",
		`{"lang":"hu","slug":"uj-nev","entity_type":"place","entity_id":"P1"}`, "")
	err := h.Rename(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}
