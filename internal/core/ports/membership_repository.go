package ports

import (
	"context"

	"github.com/citydirectory/directory-core/internal/core/domain"
)

// MembershipRepository loads the grants a permission check is evaluated on.
type MembershipRepository interface {
	// LoadMemberships returns the user's global role and every site and place
	// membership. A user without memberships yields empty slices, not an error.
	LoadMemberships(ctx context.Context, userID string) (domain.Grants, error)
}
