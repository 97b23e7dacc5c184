package domain

import (
	"fmt"
	"strings"
)

// Role is a privilege level. Roles are totally ordered by rank:
//
//	viewer(1) < editor(2) < siteadmin = placeowner(3) < admin(4) < superadmin(5)
//
// The zero value is not a valid role.
type Role uint8

const (
	RoleViewer Role = iota + 1
	RoleEditor
	RoleSiteAdmin
	RolePlaceOwner
	RoleAdmin
	RoleSuperAdmin
)

// roleRank is indexed by Role. siteadmin and placeowner differ only in the
// scope they are granted on.
var roleRank = [...]int{0, 1, 2, 3, 3, 4, 5}

var roleNames = map[Role]string{
	RoleViewer:     "viewer",
	RoleEditor:     "editor",
	RoleSiteAdmin:  "siteadmin",
	RolePlaceOwner: "placeowner",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "superadmin",
}

// Roles lists every valid role in ascending rank.
var Roles = []Role{RoleViewer, RoleEditor, RoleSiteAdmin, RolePlaceOwner, RoleAdmin, RoleSuperAdmin}

// ParseRole converts a stored role token. The empty token is the default
// viewer role; anything else unrecognised is ErrInvalidRequest.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleViewer, nil
	}
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Rank returns the position of r in the privilege order, 0 for invalid roles.
func (r Role) Rank() int {
	if !r.Valid() {
		return 0
	}
	return roleRank[r]
}

// AtLeast reports whether r grants at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && other.Valid() && r.Rank() >= other.Rank()
}

// GlobalTier reports whether r, held globally, dominates every scope.
func (r Role) GlobalTier() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: role %d", ErrInvalidRequest, int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
