package service

import (
	"fmt"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

// PermissionResolver merges a global role with scoped memberships. It is a
// pure function of its inputs.
type PermissionResolver struct{}

// NewPermissionResolver returns a PermissionResolver.
func NewPermissionResolver() *PermissionResolver {
	return &PermissionResolver{}
}

// Check evaluates req against g. The first matching rule wins:
//
//  1. global admin or superadmin at least RequiredRole
//  2. site membership for req.SiteID at least RequiredRole
//  3. place membership for req.PlaceID at least RequiredRole
//  4. any other global role at least RequiredRole
//  5. deny
//
// Only the membership matching the requested site or place is consulted.
// Malformed input is ErrInvalidRequest, never a deny.
func (p *PermissionResolver) Check(g domain.Grants, req domain.PermissionRequest) (domain.EffectivePermission, error) {
	if err := validate(g, req); err != nil {
		return domain.EffectivePermission{}, err
	}
	need := req.RequiredRole

	if g.GlobalRole.GlobalTier() && g.GlobalRole.AtLeast(need) {
		return allow(domain.ScopeGlobal, g.GlobalRole), nil
	}

	if req.SiteID != "" {
		for _, m := range g.Sites {
			if m.SiteID == req.SiteID && m.Role.AtLeast(need) {
				return allow(domain.ScopeSite, m.Role), nil
			}
		}
	}

	if req.PlaceID != "" {
		for _, m := range g.Places {
			if m.PlaceID == req.PlaceID && m.Role.AtLeast(need) {
				return allow(domain.ScopePlace, m.Role), nil
			}
		}
	}

	if g.GlobalRole.AtLeast(need) {
		return allow(domain.ScopeGlobal, g.GlobalRole), nil
	}

	return domain.EffectivePermission{Allowed: false, WinningScope: domain.ScopeNone}, nil
}

func allow(scope domain.Scope, role domain.Role) domain.EffectivePermission {
	return domain.EffectivePermission{Allowed: true, WinningScope: scope, WinningRole: role}
}

func validate(g domain.Grants, req domain.PermissionRequest) error {
	if req.Action == "" {
		return fmt.Errorf("permission check: empty action: %w", domain.ErrInvalidRequest)
	}
	if !req.RequiredRole.Valid() {
		return fmt.Errorf("permission check %s: required role %v: %w", req.Action, req.RequiredRole, domain.ErrInvalidRequest)
	}
	if !g.GlobalRole.Valid() {
		return fmt.Errorf("permission check %s: global role %v: %w", req.Action, g.GlobalRole, domain.ErrInvalidRequest)
	}
	for _, m := range g.Sites {
		if !m.Role.Valid() {
			return fmt.Errorf("permission check %s: site %s role %v: %w", req.Action, m.SiteID, m.Role, domain.ErrInvalidRequest)
		}
	}
	for _, m := range g.Places {
		if !m.Role.Valid() {
			return fmt.Errorf("permission check %s: place %s role %v: %w", req.Action, m.PlaceID, m.Role, domain.ErrInvalidRequest)
		}
	}
	return nil
}
