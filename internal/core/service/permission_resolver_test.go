package service

import (
	"errors"
	"testing"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

func mustCheck(t *testing.T, g domain.Grants, req domain.PermissionRequest) domain.EffectivePermission {
	t.Helper()
	perm, err := NewPermissionResolver().Check(g, req)
	if err != nil {
		t.Fatalf("check %+v: %v", req, err)
	}
	return perm
}

func TestPermissionResolver_SiteMembershipScenario(t *testing.T) {
	g := domain.Grants{
		GlobalRole: domain.RoleViewer,
		Sites:      []domain.SiteMembership{{SiteID: "S1", Role: domain.RoleSiteAdmin}},
	}
	req := domain.PermissionRequest{Action: domain.ActionEditPlace, RequiredRole: domain.RoleEditor, SiteID: "S1", PlaceID: "P1"}

	perm := mustCheck(t, g, req)
	if !perm.Allowed || perm.WinningScope != domain.ScopeSite || perm.WinningRole != domain.RoleSiteAdmin {
		t.Fatalf("expected site grant, got %+v", perm)
	}

	req.SiteID = "S2"
	perm = mustCheck(t, g, req)
	if perm.Allowed {
		t.Fatalf("membership on S1 must not grant S2, got %+v", perm)
	}
	if perm.WinningScope != domain.ScopeNone {
		t.Fatalf("expected scope none on deny, got %s", perm.WinningScope)
	}
}

func TestPermissionResolver_Precedence(t *testing.T) {
	cases := []struct {
		name      string
		grants    domain.Grants
		req       domain.PermissionRequest
		wantScope domain.Scope
		wantRole  domain.Role
	}{
		{
			name: "global admin beats site membership",
			grants: domain.Grants{
				GlobalRole: domain.RoleAdmin,
				Sites:      []domain.SiteMembership{{SiteID: "S1", Role: domain.RoleSiteAdmin}},
			},
			req:       domain.PermissionRequest{Action: "x", RequiredRole: domain.RoleEditor, SiteID: "S1"},
			wantScope: domain.ScopeGlobal,
			wantRole:  domain.RoleAdmin,
		},
		{
			name: "site beats place",
			grants: domain.Grants{
				GlobalRole: domain.RoleViewer,
				Sites:      []domain.SiteMembership{{SiteID: "S1", Role: domain.RoleEditor}},
				Places:     []domain.PlaceMembership{{PlaceID: "P1", Role: domain.RolePlaceOwner}},
			},
			req:       domain.PermissionRequest{Action: "x", RequiredRole: domain.RoleEditor, SiteID: "S1", PlaceID: "P1"},
			wantScope: domain.ScopeSite,
			wantRole:  domain.RoleEditor,
		},
		{
			name: "place when site membership is too weak",
			grants: domain.Grants{
				GlobalRole: domain.RoleViewer,
				Sites:      []domain.SiteMembership{{SiteID: "S1", Role: domain.RoleViewer}},
				Places:     []domain.PlaceMembership{{PlaceID: "P1", Role: domain.RolePlaceOwner}},
			},
			req:       domain.PermissionRequest{Action: "x", RequiredRole: domain.RolePlaceOwner, SiteID: "S1", PlaceID: "P1"},
			wantScope: domain.ScopePlace,
			wantRole:  domain.RolePlaceOwner,
		},
		{
			name: "scoped membership beats lower-tier global role",
			grants: domain.Grants{
				GlobalRole: domain.RoleEditor,
				Places:     []domain.PlaceMembership{{PlaceID: "P1", Role: domain.RoleEditor}},
			},
			req:       domain.PermissionRequest{Action: "x", RequiredRole: domain.RoleEditor, PlaceID: "P1"},
			wantScope: domain.ScopePlace,
			wantRole:  domain.RoleEditor,
		},
		{
			name:      "lower-tier global role without context",
			grants:    domain.Grants{GlobalRole: domain.RoleEditor},
			req:       domain.PermissionRequest{Action: "x", RequiredRole: domain.RoleEditor},
			wantScope: domain.ScopeGlobal,
			wantRole:  domain.RoleEditor,
		},
		{
			name:      "siteadmin and placeowner share a rank",
			grants:    domain.Grants{GlobalRole: domain.RoleViewer, Places: []domain.PlaceMembership{{PlaceID: "P1", Role: domain.RoleSiteAdmin}}},
			req:       domain.PermissionRequest{Action: "x", RequiredRole: domain.RolePlaceOwner, PlaceID: "P1"},
			wantScope: domain.ScopePlace,
			wantRole:  domain.RoleSiteAdmin,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			perm := mustCheck(t, tc.grants, tc.req)
			if !perm.Allowed || perm.WinningScope != tc.wantScope || perm.WinningRole != tc.wantRole {
				t.Fatalf("expected %s/%s, got %+v", tc.wantScope, tc.wantRole, perm)
			}
		})
	}
}

func TestPermissionResolver_AdminCannotActAsSuperadmin(t *testing.T) {
	perm := mustCheck(t, domain.Grants{GlobalRole: domain.RoleAdmin},
		domain.PermissionRequest{Action: domain.ActionManagePlatform, RequiredRole: domain.RoleSuperAdmin, SiteID: "S1"})
	if perm.Allowed {
		t.Fatalf("admin must not pass a superadmin check, got %+v", perm)
	}
}

// grantFixtures covers every global role combined with every membership role
// on S1 and P1.
func grantFixtures() []domain.Grants {
	var out []domain.Grants
	for _, global := range domain.Roles {
		out = append(out, domain.Grants{GlobalRole: global})
		for _, r := range domain.Roles {
			out = append(out,
				domain.Grants{GlobalRole: global, Sites: []domain.SiteMembership{{SiteID: "S1", Role: r}}},
				domain.Grants{GlobalRole: global, Places: []domain.PlaceMembership{{PlaceID: "P1", Role: r}}},
			)
		}
	}
	return out
}

var requestContexts = []struct{ site, place string }{
	{"", ""}, {"S1", ""}, {"", "P1"}, {"S1", "P1"}, {"S2", "P2"}, {"S1", "P2"},
}

func TestPermissionResolver_Monotonic(t *testing.T) {
	for _, g := range grantFixtures() {
		for _, ctx := range requestContexts {
			for _, high := range domain.Roles {
				hi := mustCheck(t, g, domain.PermissionRequest{Action: "x", RequiredRole: high, SiteID: ctx.site, PlaceID: ctx.place})
				if !hi.Allowed {
					continue
				}
				for _, low := range domain.Roles {
					if low.Rank() > high.Rank() {
						continue
					}
					lo := mustCheck(t, g, domain.PermissionRequest{Action: "x", RequiredRole: low, SiteID: ctx.site, PlaceID: ctx.place})
					if !lo.Allowed {
						t.Fatalf("grants %+v allow %s but deny %s at %+v", g, high, low, ctx)
					}
				}
			}
		}
	}
}

func TestPermissionResolver_PlaceScopeIsolation(t *testing.T) {
	for _, r := range domain.Roles {
		g := domain.Grants{
			GlobalRole: domain.RoleViewer,
			Places:     []domain.PlaceMembership{{PlaceID: "A", Role: r}},
		}
		for _, need := range domain.Roles {
			if need == domain.RoleViewer {
				continue // every user holds viewer globally
			}
			perm := mustCheck(t, g, domain.PermissionRequest{Action: "x", RequiredRole: need, PlaceID: "B"})
			if perm.Allowed {
				t.Fatalf("place A membership %s granted %s on place B", r, need)
			}
		}
	}
}

func TestPermissionResolver_SiteScopeIsolation(t *testing.T) {
	g := domain.Grants{
		GlobalRole: domain.RoleViewer,
		Sites:      []domain.SiteMembership{{SiteID: "S1", Role: domain.RoleSuperAdmin}},
		Places:     []domain.PlaceMembership{{PlaceID: "P1", Role: domain.RoleSuperAdmin}},
	}
	perm := mustCheck(t, g, domain.PermissionRequest{Action: "x", RequiredRole: domain.RoleEditor, SiteID: "S2", PlaceID: "P2"})
	if perm.Allowed {
		t.Fatalf("unrelated memberships leaked privilege: %+v", perm)
	}
}

func TestPermissionResolver_SuperadminOverride(t *testing.T) {
	g := domain.Grants{GlobalRole: domain.RoleSuperAdmin}
	for _, need := range domain.Roles {
		for _, ctx := range requestContexts {
			for action := range domain.ActionPolicy {
				perm := mustCheck(t, g, domain.PermissionRequest{Action: action, RequiredRole: need, SiteID: ctx.site, PlaceID: ctx.place})
				if !perm.Allowed || perm.WinningScope != domain.ScopeGlobal {
					t.Fatalf("superadmin denied %s/%s at %+v: %+v", action, need, ctx, perm)
				}
			}
		}
	}
}

func TestPermissionResolver_InvalidRequest(t *testing.T) {
	valid := domain.Grants{GlobalRole: domain.RoleViewer}
	cases := []struct {
		name   string
		grants domain.Grants
		req    domain.PermissionRequest
	}{
		{"unknown required role", valid, domain.PermissionRequest{Action: "x", RequiredRole: domain.Role(99)}},
		{"zero required role", valid, domain.PermissionRequest{Action: "x"}},
		{"empty action", valid, domain.PermissionRequest{RequiredRole: domain.RoleViewer}},
		{"zero global role", domain.Grants{}, domain.PermissionRequest{Action: "x", RequiredRole: domain.RoleViewer}},
		{"bad membership role", domain.Grants{
			GlobalRole: domain.RoleViewer,
			Places:     []domain.PlaceMembership{{PlaceID: "P1", Role: domain.Role(7)}},
		}, domain.PermissionRequest{Action: "x", RequiredRole: domain.RoleViewer}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPermissionResolver().Check(tc.grants, tc.req)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}
