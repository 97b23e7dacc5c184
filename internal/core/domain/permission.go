package domain

// Scope names the grant that decided a permission check.
type Scope string

const (
	ScopeNone   Scope = "none"
	ScopeGlobal Scope = "global"
	ScopeSite   Scope = "site"
	ScopePlace  Scope = "place"
)

// SiteMembership grants Role on a single site.
type SiteMembership struct {
	SiteID string `json:"site_id"`
	Role   Role   `json:"role"`
}

// PlaceMembership grants Role on a single place.
type PlaceMembership struct {
	PlaceID string `json:"place_id"`
	Role    Role   `json:"role"`
}

// Grants is everything a user holds: one global role plus scoped memberships.
type Grants struct {
	GlobalRole Role
	Sites      []SiteMembership
	Places     []PlaceMembership
}

// Action is a named operation of the admin surface.
type Action string

const (
	ActionViewDashboard      Action = "viewDashboard"
	ActionEditPlace          Action = "editPlace"
	ActionEditEvent          Action = "editEvent"
	ActionEditPage           Action = "editPage"
	ActionPublishPlace       Action = "publishPlace"
	ActionManagePlaceMembers Action = "managePlaceMembers"
	ActionManageSite         Action = "manageSite"
	ActionManageSiteMembers  Action = "manageSiteMembers"
	ActionManageLegalPages   Action = "manageLegalPages"
	ActionManageUsers        Action = "manageUsers"
	ActionManagePlatform     Action = "managePlatform"
)

// ActionPolicy is the minimum role each catalogued action requires.
var ActionPolicy = map[Action]Role{
	ActionViewDashboard:      RoleViewer,
	ActionEditPlace:          RoleEditor,
	ActionEditEvent:          RoleEditor,
	ActionEditPage:           RoleEditor,
	ActionPublishPlace:       RolePlaceOwner,
	ActionManagePlaceMembers: RolePlaceOwner,
	ActionManageSite:         RoleSiteAdmin,
	ActionManageSiteMembers:  RoleSiteAdmin,
	ActionManageLegalPages:   RoleAdmin,
	ActionManageUsers:        RoleAdmin,
	ActionManagePlatform:     RoleSuperAdmin,
}

// RequiredRole looks up the catalogued role for a.
func (a Action) RequiredRole() (Role, bool) {
	r, ok := ActionPolicy[a]
	return r, ok
}

// PermissionRequest asks whether Action may be performed. SiteID and PlaceID
// are optional context; empty means "not given".
type PermissionRequest struct {
	Action       Action
	RequiredRole Role
	SiteID       string
	PlaceID      string
}

// EffectivePermission is the outcome of a check and the grant that decided it.
// It is recomputed on every request because memberships change concurrently.
type EffectivePermission struct {
	Allowed      bool  `json:"allowed"`
	WinningScope Scope `json:"winning_scope"`
	WinningRole  Role  `json:"winning_role,omitempty"`
}
