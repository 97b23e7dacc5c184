package ports

import (
	"context"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

// OwnershipRepository answers which site, and which place if any, an entity
// belongs to. Permission scopes for entity writes are derived from it, never
// from the request.
type OwnershipRepository interface {
	// FindOwner returns domain.ErrNotFound for an unknown entity.
	FindOwner(ctx context.Context, entity domain.EntityRef) (domain.EntityOwner, error)
}
