package ports

import (
	"context"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

// PermissionCheckInput is a check on behalf of a stored user. When
// RequiredRole is zero the role catalogued for Action is used.
type PermissionCheckInput struct {
	UserID       string
	Action       domain.Action
	RequiredRole domain.Role
	SiteID       string
	PlaceID      string
}

// PermissionService evaluates checks against freshly loaded memberships.
type PermissionService interface {
	CheckPermission(ctx context.Context, in PermissionCheckInput) (domain.EffectivePermission, error)
}

// BindingService publishes and renames entity slugs.
type BindingService interface {
	Publish(ctx context.Context, b domain.SlugBinding) error
	Rename(ctx context.Context, entity domain.EntityRef, to domain.Triple) error
}
