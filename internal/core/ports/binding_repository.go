package ports

import (
	"context"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

// BindingRepository is the read side of slug bindings plus the two writes
// that change which binding is canonical.
type BindingRepository interface {
	// FindBinding returns the binding for an exact triple, canonical or not.
	// It returns domain.ErrNotFound when no binding exists.
	FindBinding(ctx context.Context, t domain.Triple) (*domain.SlugBinding, error)
	// FindCanonical returns the canonical binding of entity in lang.
	// It returns domain.ErrNotFound when the entity has none.
	FindCanonical(ctx context.Context, lang string, entity domain.EntityRef) (*domain.SlugBinding, error)

	// Publish stores b as the canonical binding of its entity. It fails with
	// domain.ErrSlugTaken if the triple is bound to a different entity.
	Publish(ctx context.Context, b domain.SlugBinding) error
	// Rename demotes the current canonical binding of entity in lang and makes
	// to canonical. Rebinding a historical slug of the same entity promotes it.
	Rename(ctx context.Context, entity domain.EntityRef, to domain.Triple) error
}
